package handoff

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"testing"
)

type execCall struct {
	path string
	argv []string
	env  []string
}

// stubExec replaces execFn for one test and restores it afterwards.
func stubExec(t *testing.T, err error) *[]execCall {
	t.Helper()

	var calls []execCall
	orig := execFn
	execFn = func(path string, argv, env []string) error {
		calls = append(calls, execCall{path: path, argv: argv, env: env})
		return err
	}
	t.Cleanup(func() { execFn = orig })
	return &calls
}

func requireShell(t *testing.T) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	path, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not found")
	}
	return path
}

// TestProcessExec tests resolution and the call into exec.
func TestProcessExec(t *testing.T) {
	t.Run("empty command is rejected before exec", func(t *testing.T) {
		calls := stubExec(t, nil)

		for _, argv := range [][]string{nil, {""}} {
			if err := New(argv).Exec(); !errors.Is(err, ErrNoCommand) {
				t.Errorf("Exec(%q) error = %v, expected ErrNoCommand", argv, err)
			}
		}
		if len(*calls) != 0 {
			t.Errorf("exec called %d times", len(*calls))
		}
	})

	t.Run("missing executable is reported", func(t *testing.T) {
		calls := stubExec(t, nil)

		err := New([]string{"onionentry-no-such-app", "main.py"}).Exec()
		if !errors.Is(err, ErrAppNotFound) {
			t.Errorf("expected ErrAppNotFound, got %v", err)
		}
		if len(*calls) != 0 {
			t.Errorf("exec called %d times", len(*calls))
		}
	})

	t.Run("resolved path, argv and inherited env are passed", func(t *testing.T) {
		sh := requireShell(t)
		calls := stubExec(t, nil)

		argv := []string{"sh", "-c", "exit 0"}
		if err := New(argv).Exec(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(*calls) != 1 {
			t.Fatalf("expected exactly one exec, got %d", len(*calls))
		}
		got := (*calls)[0]
		if got.path != sh {
			t.Errorf("path = %q, expected %q", got.path, sh)
		}
		if !slices.Equal(got.argv, argv) {
			t.Errorf("argv = %q, expected %q", got.argv, argv)
		}
		if !slices.Equal(got.env, os.Environ()) {
			t.Error("expected the unmodified environment")
		}
	})

	t.Run("explicit env is passed as is", func(t *testing.T) {
		requireShell(t)
		calls := stubExec(t, nil)

		env := []string{"A=1"}
		p := &Process{Argv: []string{"sh"}, Env: env}
		if err := p.Exec(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal((*calls)[0].env, env) {
			t.Errorf("env = %q, expected %q", (*calls)[0].env, env)
		}
	})

	t.Run("exec failure is wrapped", func(t *testing.T) {
		requireShell(t)
		boom := errors.New("permission denied")
		stubExec(t, boom)

		err := New([]string{"sh"}).Exec()
		if !errors.Is(err, ErrExecFailed) || !errors.Is(err, boom) {
			t.Errorf("expected ErrExecFailed wrapping the cause, got %v", err)
		}
	})
}

// TestResolve tests PATH lookup of the application.
func TestResolve(t *testing.T) {
	sh := requireShell(t)

	path, err := New([]string{"sh"}).Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if path != sh {
		t.Errorf("Resolve() = %q, expected %q", path, sh)
	}

	abs, err := New([]string{sh}).Resolve()
	if err != nil || abs != sh {
		t.Errorf("Resolve(%q) = %q, %v", sh, abs, err)
	}

	dir := t.TempDir()
	notExec := filepath.Join(dir, "main.py")
	if err := os.WriteFile(notExec, []byte("print()\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := New([]string{notExec}).Resolve(); !errors.Is(err, ErrAppNotFound) {
		t.Errorf("expected ErrAppNotFound for a non-executable file, got %v", err)
	}
}

// TestRunAndExit tests the emulated exec.
func TestRunAndExit(t *testing.T) {
	sh := requireShell(t)

	var codes []int
	orig := exitFn
	exitFn = func(code int) { codes = append(codes, code) }
	t.Cleanup(func() { exitFn = orig })

	tests := []struct {
		name   string
		script string
		want   int
	}{
		{"exit code zero is mirrored", "exit 0", 0},
		{"non-zero exit code is mirrored", "exit 7", 7},
		{"environment reaches the child", `test "$ONIONENTRY_TEST" = yes`, 0},
	}
	for _, tt := range tests {
		codes = nil
		err := runAndExit(sh, []string{"sh", "-c", tt.script}, []string{"ONIONENTRY_TEST=yes"})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if len(codes) != 1 || codes[0] != tt.want {
			t.Errorf("%s: exit codes = %v, expected [%d]", tt.name, codes, tt.want)
		}
	}

	codes = nil
	if err := runAndExit(filepath.Join(t.TempDir(), "missing"), []string{"missing"}, nil); err == nil {
		t.Error("expected a start error")
	}
	if len(codes) != 0 {
		t.Errorf("exit called on start failure: %v", codes)
	}
}
