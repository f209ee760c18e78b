package service

import (
	"os"
	"strings"
	"testing"
)

func TestUnitContents(t *testing.T) {
	got, err := UnitContents("/usr/local/bin/logkeepd", "/srv/app/logkeep.yaml")
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"ExecStart=/usr/local/bin/logkeepd --config /srv/app/logkeep.yaml",
		"Type=simple",
		"Restart=on-failure",
		"[Install]",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("unit file missing %q:\n%s", want, got)
		}
	}
}

func TestUnitContentsWithoutConfig(t *testing.T) {
	got, err := UnitContents("/usr/local/bin/logkeepd", "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "ExecStart=/usr/local/bin/logkeepd\n") {
		t.Errorf("unexpected ExecStart:\n%s", got)
	}
}

func TestParseUnitRoundTrip(t *testing.T) {
	contents, err := UnitContents("/bin/logkeepd", "/etc/logkeep.yaml")
	if err != nil {
		t.Fatal(err)
	}
	opts, err := ParseUnit(strings.NewReader(contents))
	if err != nil {
		t.Fatal(err)
	}
	if len(opts) != len(Options("/bin/logkeepd", "/etc/logkeep.yaml")) {
		t.Fatalf("expected %d options, got %d", len(Options("", "")), len(opts))
	}
	found := false
	for _, o := range opts {
		if o.Section == "Service" && o.Name == "ExecStart" {
			found = o.Value == "/bin/logkeepd --config /etc/logkeep.yaml"
		}
	}
	if !found {
		t.Error("ExecStart not preserved")
	}
}

func TestUnitPath(t *testing.T) {
	path, err := UnitPath()
	if err != nil {
		t.Fatalf("UnitPath() error: %v", err)
	}
	if !strings.HasSuffix(path, "systemd/user/logkeepd.service") {
		t.Errorf("UnitPath() = %q, want suffix systemd/user/logkeepd.service", path)
	}
}

func TestStatusNoSocket(t *testing.T) {
	got := Status("/tmp/logkeep-test-nonexistent.sock")
	if !strings.Contains(got, "socket: inactive") {
		t.Errorf("Status() should report inactive socket, got: %s", got)
	}
}

func TestStatusWithSocket(t *testing.T) {
	// A regular file stands in for the socket.
	f, err := os.CreateTemp("", "logkeep-test-*.sock")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	f.Close()

	got := Status(f.Name())
	if !strings.Contains(got, "socket: active") {
		t.Errorf("Status() should report active socket, got: %s", got)
	}
}
