package acceptance

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// subst replaces the placeholder tokens feature files use to stay isolated
// across scenario runs: {{tmp}} is the scenario's private temp directory,
// {{fixtures}} is the acceptance/fixtures directory shared read-only.
func subst(state *testState, s string) string {
	s = strings.ReplaceAll(s, "{{tmp}}", state.tmpDir)
	s = strings.ReplaceAll(s, "{{fixtures}}", state.fixturesDir)
	return s
}

func iRun(ctx context.Context, command string) (context.Context, error) {
	state := getState(ctx)
	if state == nil {
		return ctx, fmt.Errorf("no test state; is the Before hook running?")
	}

	args := strings.Fields(subst(state, command))
	if len(args) == 0 {
		return ctx, fmt.Errorf("empty command")
	}
	if args[0] == "intentctl" {
		args[0] = state.binPath
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = state.tmpDir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	state.stdout = stdout.String()
	state.stderr = stderr.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			state.exitCode = exitErr.ExitCode()
		} else {
			return ctx, fmt.Errorf("command execution failed: %w", err)
		}
	} else {
		state.exitCode = 0
	}
	return ctx, nil
}

func iCreateFile(ctx context.Context, relPath, content string) (context.Context, error) {
	state := getState(ctx)
	full := filepath.Join(subst(state, "{{tmp}}"), relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return ctx, err
	}
	return ctx, os.WriteFile(full, []byte(content), 0o644)
}

func theExitCodeIs(ctx context.Context, expected int) error {
	state := getState(ctx)
	if state.exitCode != expected {
		return fmt.Errorf("expected exit code %d, got %d\nstdout: %s\nstderr: %s",
			expected, state.exitCode, state.stdout, state.stderr)
	}
	return nil
}

func theExitCodeIsNot(ctx context.Context, notExpected int) error {
	state := getState(ctx)
	if state.exitCode == notExpected {
		return fmt.Errorf("expected exit code to not be %d\nstdout: %s\nstderr: %s",
			notExpected, state.stdout, state.stderr)
	}
	return nil
}

func theOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !strings.Contains(state.stdout, subst(state, text)) {
		return fmt.Errorf("expected stdout to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

func theOutputDoesNotContain(ctx context.Context, text string) error {
	state := getState(ctx)
	if strings.Contains(state.stdout, subst(state, text)) {
		return fmt.Errorf("expected stdout not to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

func theErrorOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	combined := state.stdout + state.stderr
	if !strings.Contains(combined, subst(state, text)) {
		return fmt.Errorf("expected output to contain %q, got stdout:\n%s\nstderr:\n%s", text, state.stdout, state.stderr)
	}
	return nil
}

func theFileExists(ctx context.Context, relPath string) error {
	state := getState(ctx)
	full := filepath.Join(state.tmpDir, relPath)
	if _, err := os.Lstat(full); err != nil {
		return fmt.Errorf("expected file %q to exist: %w", full, err)
	}
	return nil
}

func theFileDoesNotExist(ctx context.Context, relPath string) error {
	state := getState(ctx)
	full := filepath.Join(state.tmpDir, relPath)
	if _, err := os.Lstat(full); err == nil {
		return fmt.Errorf("expected file %q not to exist", full)
	}
	return nil
}

// jsonGet walks raw's decoded tree along a dotted path; a segment may carry
// a trailing "[n]" to index into an array.
func jsonGet(raw []byte, path string) (interface{}, bool) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		key := seg
		idx := -1
		if i := strings.Index(seg, "["); i >= 0 {
			key = seg[:i]
			n, err := strconv.Atoi(strings.TrimSuffix(seg[i+1:], "]"))
			if err != nil {
				return nil, false
			}
			idx = n
		}
		if key != "" {
			m, ok := cur.(map[string]interface{})
			if !ok {
				return nil, false
			}
			cur, ok = m[key]
			if !ok {
				return nil, false
			}
		}
		if idx >= 0 {
			arr, ok := cur.([]interface{})
			if !ok || idx >= len(arr) {
				return nil, false
			}
			cur = arr[idx]
		}
	}
	return cur, true
}

func theJSONOutputFieldEquals(ctx context.Context, path, expected string) error {
	state := getState(ctx)
	v, ok := jsonGet([]byte(state.stdout), path)
	if !ok {
		return fmt.Errorf("field %q not found in output:\n%s", path, state.stdout)
	}
	got := fmt.Sprintf("%v", v)
	if got != expected {
		return fmt.Errorf("expected field %q to equal %q, got %q", path, expected, got)
	}
	return nil
}

func theJSONOutputFieldIsTrue(ctx context.Context, path string) error {
	state := getState(ctx)
	v, ok := jsonGet([]byte(state.stdout), path)
	if !ok {
		return fmt.Errorf("field %q not found in output:\n%s", path, state.stdout)
	}
	b, ok := v.(bool)
	if !ok || !b {
		return fmt.Errorf("expected field %q to be true, got %v", path, v)
	}
	return nil
}

func theJSONOutputFieldIsNotNull(ctx context.Context, path string) error {
	state := getState(ctx)
	v, ok := jsonGet([]byte(state.stdout), path)
	if !ok || v == nil {
		return fmt.Errorf("expected field %q to be present and non-null, got %v", path, v)
	}
	return nil
}

func theJSONArrayFieldEquals(ctx context.Context, path, expectedList string) error {
	state := getState(ctx)
	v, ok := jsonGet([]byte(state.stdout), path)
	if !ok {
		return fmt.Errorf("field %q not found in output:\n%s", path, state.stdout)
	}
	arr, ok := v.([]interface{})
	if !ok {
		return fmt.Errorf("field %q is not an array: %v", path, v)
	}
	got := make([]string, 0, len(arr))
	for _, e := range arr {
		got = append(got, fmt.Sprintf("%v", e))
	}
	sort.Strings(got)

	want := strings.Split(expectedList, ",")
	for i := range want {
		want[i] = strings.TrimSpace(want[i])
	}
	sort.Strings(want)

	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("expected field %q to equal %v, got %v", path, want, got)
	}
	return nil
}

func theJSONOutputViolationsContainRule(ctx context.Context, ruleID string) error {
	state := getState(ctx)
	v, ok := jsonGet([]byte(state.stdout), "violations")
	if !ok {
		return fmt.Errorf("no violations field in output:\n%s", state.stdout)
	}
	arr, ok := v.([]interface{})
	if !ok {
		return fmt.Errorf("violations field is not an array: %v", v)
	}
	for _, e := range arr {
		m, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		if fmt.Sprintf("%v", m["rule_id"]) == ruleID {
			return nil
		}
	}
	return fmt.Errorf("expected violations to contain rule %q, got:\n%s", ruleID, state.stdout)
}

func theJSONFileFieldIsAtLeast(ctx context.Context, relPath, path string, min int) error {
	state := getState(ctx)
	full := filepath.Join(state.tmpDir, relPath)
	raw, err := os.ReadFile(full)
	if err != nil {
		return fmt.Errorf("cannot read %q: %w", full, err)
	}
	v, ok := jsonGet(raw, path)
	if !ok {
		return fmt.Errorf("field %q not found in %q", path, full)
	}
	n, ok := v.(float64)
	if !ok {
		return fmt.Errorf("field %q in %q is not a number: %v", path, full, v)
	}
	if int(n) < min {
		return fmt.Errorf("expected field %q in %q to be at least %d, got %v", path, full, min, n)
	}
	return nil
}

func areByteIdentical(ctx context.Context, pathA, pathB string) error {
	state := getState(ctx)
	a, err := os.ReadFile(filepath.Join(state.tmpDir, pathA))
	if err != nil {
		return err
	}
	b, err := os.ReadFile(filepath.Join(state.tmpDir, pathB))
	if err != nil {
		return err
	}
	if string(a) != string(b) {
		return fmt.Errorf("%q and %q differ", pathA, pathB)
	}
	return nil
}
