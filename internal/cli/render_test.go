package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/safecheck/internal/output"
)

var errShortWrite = errors.New("short write")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errShortWrite }

func newRenderCmd(t *testing.T, format output.Format) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	cc := newTestCommandContext(t)
	cc.Fmt = output.NewFormatter(format, nil)

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	SetCmdContext(cmd, cc)

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestRenderDoc(t *testing.T) {
	t.Parallel()

	resp := TokenShowResponse{Backend: "file", Source: tokenSourceStore, Token: "secr..."}

	tests := []struct {
		name     string
		format   output.Format
		want     string
		wantText bool
	}{
		{
			name:   "json document",
			format: output.FormatJSON,
			want:   "{\n  \"backend\": \"file\",\n  \"source\": \"store\",\n  \"token\": \"secr...\"\n}\n",
		},
		{
			name:     "text callback",
			format:   output.FormatText,
			want:     "token secr...\n",
			wantText: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cmd, buf := newRenderCmd(t, tc.format)
			called := false
			err := renderDoc(cmd, resp, func(w io.Writer) error {
				called = true
				outln(w, "token "+resp.Token)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tc.wantText, called)
			assert.Equal(t, tc.want, buf.String())
		})
	}
}

func TestRenderDoc_TextErrorPropagates(t *testing.T) {
	t.Parallel()

	cmd, _ := newRenderCmd(t, output.FormatText)
	err := renderDoc(cmd, nil, func(io.Writer) error { return errShortWrite })
	require.ErrorIs(t, err, errShortWrite)
}

// NOT parallel: without a command context renderDoc reads the global.
func TestRenderDoc_NoContextFallsBackToText(t *testing.T) {
	restore := saveGlobals(t)
	defer restore()
	cmdCtx = nil

	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	require.NoError(t, renderDoc(cmd, BuildInfo{Version: "v1"}, func(w io.Writer) error {
		outln(w, "plain")
		return nil
	}))
	assert.Equal(t, "plain\n", buf.String())
}

func TestEncodeDoc(t *testing.T) {
	t.Parallel()

	t.Run("build info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, encodeDoc(&buf, BuildInfo{Version: "v1.0.0", Commit: "abc", Date: "2026-01-01"}))

		var got BuildInfo
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "v1.0.0", got.Version)
		assert.Contains(t, buf.String(), "\n  \"commit\": \"abc\"")
	})

	t.Run("config keys stay ordered", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, encodeDoc(&buf, []string{"home", "http.burst"}))
		assert.Equal(t, "[\n  \"home\",\n  \"http.burst\"\n]\n", buf.String())
	})

	t.Run("nil", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, encodeDoc(&buf, nil))
		assert.Equal(t, "null\n", buf.String())
	})

	t.Run("writer error", func(t *testing.T) {
		t.Parallel()

		err := encodeDoc(failingWriter{}, map[string]string{"http.burst": "10"})
		require.ErrorIs(t, err, errShortWrite)
	})

	t.Run("unsupported value", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.Error(t, encodeDoc(&buf, make(chan int)))
		assert.Empty(t, buf.String())
	})
}
