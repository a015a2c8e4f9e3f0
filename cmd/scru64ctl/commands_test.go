package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/omeyang/scru64/pkg/scru64"
)

// discardLogger 测试用的无输出日志器。
func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func mustGenerator(t *testing.T, spec string) *scru64.Generator {
	t.Helper()
	gen, err := scru64.NewGenerator(scru64.MustParseNodeSpec(spec))
	if err != nil {
		t.Fatalf("NewGenerator(%q) failed: %v", spec, err)
	}
	return gen
}

func TestUsageError(t *testing.T) {
	err := &usageError{msg: "test error"}
	if err.Error() != "test error" {
		t.Errorf("usageError.Error() = %q, want %q", err.Error(), "test error")
	}

	var target *usageError
	if !errors.As(err, &target) {
		t.Error("errors.As failed for *usageError")
	}
}

func TestExitError(t *testing.T) {
	err := &exitError{code: 1}
	if err.Error() != "" {
		t.Errorf("exitError.Error() = %q, want empty", err.Error())
	}

	var target *exitError
	if !errors.As(err, &target) || target.code != 1 {
		t.Error("errors.As failed for *exitError")
	}
}

func TestCmdNew(t *testing.T) {
	gen := mustGenerator(t, "42/8")
	var buf bytes.Buffer

	if err := cmdNew(context.Background(), &buf, gen, discardLogger(), 3); err != nil {
		t.Fatalf("cmdNew failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), buf.String())
	}
	for i, line := range lines {
		if len(line) != 12 {
			t.Errorf("line %d: %q is not 12 chars", i, line)
		}
		if _, err := scru64.ParseID(line); err != nil {
			t.Errorf("line %d: %q is not a valid ID: %v", i, line, err)
		}
		if i > 0 && line <= lines[i-1] {
			t.Errorf("line %d: %q not greater than %q", i, line, lines[i-1])
		}
	}
}

func TestCmdNewInvalidCount(t *testing.T) {
	gen := mustGenerator(t, "42/8")

	err := cmdNew(context.Background(), &bytes.Buffer{}, gen, discardLogger(), 0)
	var usageErr *usageError
	if !errors.As(err, &usageErr) {
		t.Fatalf("expected *usageError, got %T: %v", err, err)
	}
}

func TestCmdNewCancelledContext(t *testing.T) {
	gen := mustGenerator(t, "42/8")
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // 立即取消

	err := cmdNew(ctx, &bytes.Buffer{}, gen, discardLogger(), 1)
	if err == nil {
		t.Fatal("cmdNew with canceled context should return error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
}

func TestCmdInspect(t *testing.T) {
	var buf bytes.Buffer

	if err := cmdInspect(&buf, []string{"0u375nxqh5cq"}); err != nil {
		t.Fatalf("cmdInspect failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"0u375nxqh5cq",
		"110009624767914842",
		"6557084606",
		"2777946",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCmdInspectErrors(t *testing.T) {
	var usageErr *usageError

	// 无参数
	err := cmdInspect(&bytes.Buffer{}, nil)
	if !errors.As(err, &usageErr) {
		t.Fatalf("expected *usageError, got %T: %v", err, err)
	}

	// 无效 ID
	err = cmdInspect(&bytes.Buffer{}, []string{"not-an-id"})
	if !errors.As(err, &usageErr) {
		t.Fatalf("expected *usageError, got %T: %v", err, err)
	}
}

func TestCmdSpec(t *testing.T) {
	var buf bytes.Buffer

	if err := cmdSpec(&buf, "0xb/8"); err != nil {
		t.Fatalf("cmdSpec failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"canonical:    11/8",
		"node_id:      11",
		"node_id_size: 8",
		"counter_size: 16",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "node_prev") {
		t.Errorf("bare form should not print node_prev:\n%s", out)
	}
}

func TestCmdSpecResumeForm(t *testing.T) {
	var buf bytes.Buffer

	if err := cmdSpec(&buf, "0u2r85hm2pt3/16"); err != nil {
		t.Fatalf("cmdSpec failed: %v", err)
	}
	if !strings.Contains(buf.String(), "node_prev:    0u2r85hm2pt3") {
		t.Errorf("resume form should print node_prev:\n%s", buf.String())
	}
}

func TestCmdSpecInvalid(t *testing.T) {
	err := cmdSpec(&bytes.Buffer{}, "42/99")
	var usageErr *usageError
	if !errors.As(err, &usageErr) {
		t.Fatalf("expected *usageError, got %T: %v", err, err)
	}
}

func TestCmdStress(t *testing.T) {
	gen := mustGenerator(t, "42/8")
	var buf bytes.Buffer

	if err := cmdStress(context.Background(), &buf, gen, discardLogger(), 200, 4); err != nil {
		t.Fatalf("cmdStress failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"generated:  200",
		"duplicates: 0",
		"monotonic:  true",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCmdStressInvalidArgs(t *testing.T) {
	gen := mustGenerator(t, "42/8")
	var usageErr *usageError

	err := cmdStress(context.Background(), &bytes.Buffer{}, gen, discardLogger(), 0, 4)
	if !errors.As(err, &usageErr) {
		t.Fatalf("expected *usageError, got %T: %v", err, err)
	}

	err = cmdStress(context.Background(), &bytes.Buffer{}, gen, discardLogger(), 100, 0)
	if !errors.As(err, &usageErr) {
		t.Fatalf("expected *usageError, got %T: %v", err, err)
	}
}

func TestRunNew(t *testing.T) {
	t.Setenv(scru64.EnvNodeSpec, "")

	if code := run([]string{"scru64ctl", "-n", "42/8", "new"}); code != 0 {
		t.Errorf("run new = %d, want 0", code)
	}
}

func TestRunMissingNodeSpec(t *testing.T) {
	t.Setenv(scru64.EnvNodeSpec, "")

	if code := run([]string{"scru64ctl", "new"}); code != 2 {
		t.Errorf("run new without node spec = %d, want 2", code)
	}
}

func TestRunEnvNodeSpec(t *testing.T) {
	t.Setenv(scru64.EnvNodeSpec, "0xb00/12")

	if code := run([]string{"scru64ctl", "new"}); code != 0 {
		t.Errorf("run new with env node spec = %d, want 0", code)
	}
}

func TestRunInvalidNodeSpec(t *testing.T) {
	if code := run([]string{"scru64ctl", "-n", "42/99", "new"}); code != 2 {
		t.Errorf("run new with invalid node spec = %d, want 2", code)
	}
}

func TestRunConfigFile(t *testing.T) {
	t.Setenv(scru64.EnvNodeSpec, "")

	path := filepath.Join(t.TempDir(), "conf.yaml")
	if err := os.WriteFile(path, []byte("node_spec: \"42/8\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if code := run([]string{"scru64ctl", "-c", path, "new"}); code != 0 {
		t.Errorf("run new with config = %d, want 0", code)
	}

	// --node-spec 标志优先于配置文件
	if code := run([]string{"scru64ctl", "-c", path, "-n", "0xb00/12", "new"}); code != 0 {
		t.Errorf("run new with config and flag = %d, want 0", code)
	}
}

func TestRunInspect(t *testing.T) {
	if code := run([]string{"scru64ctl", "inspect", "0u375nxqh5cq"}); code != 0 {
		t.Errorf("run inspect = %d, want 0", code)
	}
	if code := run([]string{"scru64ctl", "inspect", "bad"}); code != 2 {
		t.Errorf("run inspect with invalid ID = %d, want 2", code)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if code := run([]string{"scru64ctl", "bogus"}); code != 2 {
		t.Errorf("run with unknown command = %d, want 2", code)
	}
}

func TestRunLogFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "scru64ctl.log")

	code := run([]string{"scru64ctl", "-n", "42/8", "--log-file", logPath, "new"})
	if code != 0 {
		t.Fatalf("run new with log file = %d, want 0", code)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	// 生成后快照为续发形式（含 node_prev），只校验 count 字段
	if !strings.Contains(string(data), `"count":1`) {
		t.Errorf("log missing count field: %s", data)
	}
}
