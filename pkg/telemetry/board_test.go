package telemetry

import "testing"

func TestBoard_PutAndSnapshot(t *testing.T) {
	b := NewBoard()
	b.PutNumber("arm/shoulder", 42.5)
	b.PutNumber("arm/elbow", -10)
	b.PutBool("gripper/closed", true)
	b.PutString("mode", "teleop")

	snap := b.Snapshot()
	if got := snap.Numbers["arm/shoulder"]; got != 42.5 {
		t.Errorf("arm/shoulder = %f, want 42.5", got)
	}
	if got := snap.Numbers["arm/elbow"]; got != -10 {
		t.Errorf("arm/elbow = %f, want -10", got)
	}
	if !snap.Bools["gripper/closed"] {
		t.Error("gripper/closed = false, want true")
	}
	if snap.Strings["mode"] != "teleop" {
		t.Errorf("mode = %q, want teleop", snap.Strings["mode"])
	}
}

func TestBoard_SnapshotIsACopy(t *testing.T) {
	b := NewBoard()
	b.PutNumber("k", 1)

	snap := b.Snapshot()
	b.PutNumber("k", 2)

	if snap.Numbers["k"] != 1 {
		t.Error("snapshot changed after a later Put")
	}
	snap.Numbers["k"] = 99
	if got := b.Snapshot().Numbers["k"]; got != 2 {
		t.Errorf("board value = %f after mutating a snapshot, want 2", got)
	}
}

func TestBoard_Overwrite(t *testing.T) {
	b := NewBoard()
	b.PutNumber("k", 1)
	b.PutNumber("k", 2)
	if got := b.Snapshot().Numbers["k"]; got != 2 {
		t.Errorf("k = %f, want latest value 2", got)
	}
}
