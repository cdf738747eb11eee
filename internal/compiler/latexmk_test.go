package compiler

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeSuccess = `#!/bin/sh
for a in "$@"; do
  case "$a" in -jobname=*) job="${a#-jobname=}";; esac
done
echo "args: $*"
printf '%%PDF-1.4' > "$job.pdf"
`

// writeScript installs a shell script standing in for latexmk.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available, skipping compiler test")
	}
	path := filepath.Join(t.TempDir(), "latexmk")
	require.NoError(t, os.WriteFile(path, []byte(body), 0755))
	return path
}

func TestLatexmk_CompileSuccess(t *testing.T) {
	workDir := t.TempDir()
	c := NewLatexmk(writeScript(t, fakeSuccess), 1)

	pdf, err := c.Compile(context.Background(), Job{
		SourcePath: "john-1.tex",
		WorkDir:    workDir,
		JobName:    "john-1",
		Force:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workDir, "john-1.pdf"), pdf)

	data, err := os.ReadFile(pdf)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestLatexmk_NonZeroExit(t *testing.T) {
	c := NewLatexmk(writeScript(t, "#!/bin/sh\necho '! Undefined control sequence.'\nexit 12\n"), 1)

	_, err := c.Compile(context.Background(), Job{SourcePath: "a.tex", WorkDir: t.TempDir(), JobName: "a"})
	require.Error(t, err)

	var compErr *CompilationError
	require.ErrorAs(t, err, &compErr)
	assert.Contains(t, compErr.LogOutput, "Undefined control sequence")
	assert.False(t, compErr.TimedOut())
}

func TestLatexmk_MissingArtifact(t *testing.T) {
	c := NewLatexmk(writeScript(t, "#!/bin/sh\necho done\n"), 1)

	_, err := c.Compile(context.Background(), Job{SourcePath: "a.tex", WorkDir: t.TempDir(), JobName: "a"})
	var compErr *CompilationError
	require.ErrorAs(t, err, &compErr)
	assert.Contains(t, compErr.Message, "PDF was not generated")
}

func TestLatexmk_Timeout(t *testing.T) {
	c := NewLatexmk(writeScript(t, "#!/bin/sh\nexec sleep 5\n"), 1)

	start := time.Now()
	_, err := c.Compile(context.Background(), Job{
		SourcePath: "a.tex",
		WorkDir:    t.TempDir(),
		JobName:    "a",
		Timeout:    200 * time.Millisecond,
	})
	assert.Less(t, time.Since(start), 4*time.Second)

	var compErr *CompilationError
	require.ErrorAs(t, err, &compErr)
	assert.True(t, compErr.TimedOut())
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestLatexmk_RequiresJobName(t *testing.T) {
	c := NewLatexmk("latexmk", 1)
	_, err := c.Compile(context.Background(), Job{SourcePath: "a.tex", WorkDir: t.TempDir()})
	var compErr *CompilationError
	assert.ErrorAs(t, err, &compErr)
}

func TestLatexmk_BoundsConcurrency(t *testing.T) {
	script := `#!/bin/sh
mkdir running 2>/dev/null || { echo overlap; exit 3; }
sleep 0.2
rmdir running
for a in "$@"; do
  case "$a" in -jobname=*) job="${a#-jobname=}";; esac
done
printf pdf > "$job.pdf"
`
	workDir := t.TempDir()
	c := NewLatexmk(writeScript(t, script), 1)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := []string{"a", "b", "c"}[i]
			_, errs[i] = c.Compile(context.Background(), Job{SourcePath: name + ".tex", WorkDir: workDir, JobName: name})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestLatexmk_AcquireHonoursCancellation(t *testing.T) {
	c := NewLatexmk(writeScript(t, fakeSuccess), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, c.sem.Acquire(context.Background(), 1))
	defer c.sem.Release(1)

	_, err := c.Compile(ctx, Job{SourcePath: "a.tex", WorkDir: t.TempDir(), JobName: "a"})
	var compErr *CompilationError
	require.ErrorAs(t, err, &compErr)
	assert.Contains(t, compErr.Message, "compiler slot")
}

func TestLatexmk_CleanPassesJobName(t *testing.T) {
	workDir := t.TempDir()
	script := "#!/bin/sh\necho \"$@\" > clean-args\n"
	c := NewLatexmk(writeScript(t, script), 1)

	require.NoError(t, os.WriteFile(filepath.Join(workDir, "job.tex"), []byte("x"), 0644))
	require.NoError(t, c.Clean(context.Background(), workDir, "job"))

	args, err := os.ReadFile(filepath.Join(workDir, "clean-args"))
	require.NoError(t, err)
	assert.Equal(t, "-C -jobname=job job.tex\n", string(args))
}

func TestLatexmk_CleanFailure(t *testing.T) {
	c := NewLatexmk(writeScript(t, "#!/bin/sh\nexit 1\n"), 1)
	err := c.Clean(context.Background(), t.TempDir(), "job")
	var compErr *CompilationError
	assert.ErrorAs(t, err, &compErr)
}

func TestNewLatexmk_Defaults(t *testing.T) {
	c := NewLatexmk("", 0)
	assert.Equal(t, "latexmk", c.Binary)
	assert.NotNil(t, c.sem)
}
