package main

import (
	"bytes"
	"testing"
)

func TestRunDryRunPrintsConfigAndExits(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer

	code := run([]string{"--dry-run", "--datadir", dir, "--domain-size", "4"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr=%s", code, errOut.String())
	}
	if out.Len() == 0 {
		t.Fatalf("expected config output on stdout")
	}
}

func TestRunRejectsInvalidDomainSize(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer

	code := run([]string{"--dry-run", "--datadir", dir, "--domain-size", "3"}, &out, &errOut)
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if errOut.Len() == 0 {
		t.Fatalf("expected an error message on stderr")
	}
}

func TestRunMineOnceWithEmptyPoolIsANoop(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer

	code := run([]string{"--mine-once", "--datadir", dir, "--domain-size", "4"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr=%s", code, errOut.String())
	}
}
