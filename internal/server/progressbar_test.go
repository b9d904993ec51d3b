package server

import "testing"

func TestQuietBuildProgressIsNoOp(t *testing.T) {
	SetQuietBuild(true)
	defer SetQuietBuild(false)

	p := NewBuildProgress(10, "building")
	if _, err := p.Write([]byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	p.Add(5)
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, ok := p.(*quietBuildProgress); !ok {
		t.Fatalf("expected quietBuildProgress, got %T", p)
	}
}

func TestNewBuildProgressReturnsBar(t *testing.T) {
	SetQuietBuild(false)
	p := NewBuildProgress(10, "building")
	defer p.Close()
	p.Add(1)
	if _, ok := p.(*buildProgressBar); !ok {
		t.Fatalf("expected buildProgressBar, got %T", p)
	}
}
