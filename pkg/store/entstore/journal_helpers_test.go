package entstore

import (
	"encoding/json"
	"testing"

	"github.com/wilhg/toolsrv/pkg/store"
)

func structToEvent(id, callID, tool string, payload json.RawMessage) store.EventRecord {
	return store.EventRecord{
		EventID: id,
		CallID:  callID,
		Tool:    tool,
		Payload: payload,
	}
}

// exerciseJournal runs the backend-independent journal contract against st.
func exerciseJournal(t *testing.T, st *Store) {
	t.Helper()
	ctx := t.Context()

	last, err := st.LastSeq(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if last != 0 {
		t.Fatalf("empty journal last seq=%d", last)
	}

	payload, _ := json.Marshal(map[string]any{"durationMs": 3})
	e1, err := st.AppendEvent(ctx, structToEvent("e1", "c1", "create-task", payload))
	if err != nil {
		t.Fatal(err)
	}
	e2, err := st.AppendEvent(ctx, structToEvent("e2", "c2", "list-tasks", nil))
	if err != nil {
		t.Fatal(err)
	}
	failed := structToEvent("e3", "c3", "create-task", nil)
	failed.IsError = true
	failed.Kind = "validation"
	e3, err := st.AppendEvent(ctx, failed)
	if err != nil {
		t.Fatal(err)
	}
	if !(e1.Seq < e2.Seq && e2.Seq < e3.Seq) {
		t.Fatalf("seq not increasing: %d %d %d", e1.Seq, e2.Seq, e3.Seq)
	}

	// idempotent append
	dup, err := st.AppendEvent(ctx, structToEvent("e1", "other", "other", nil))
	if err != nil {
		t.Fatal(err)
	}
	if dup.Seq != e1.Seq || dup.CallID != "c1" {
		t.Fatalf("duplicate append returned %+v", dup)
	}

	all, err := st.ListEvents(ctx, "", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("len=%d want 3", len(all))
	}
	var got map[string]any
	if err := json.Unmarshal(all[0].Payload, &got); err != nil || got["durationMs"] != float64(3) {
		t.Fatalf("payload=%s err=%v", all[0].Payload, err)
	}
	if !all[2].IsError || all[2].Kind != "validation" {
		t.Fatalf("third=%+v", all[2])
	}

	byTool, err := st.ListEvents(ctx, "create-task", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(byTool) != 2 || byTool[0].EventID != "e1" || byTool[1].EventID != "e3" {
		t.Fatalf("by tool=%+v", byTool)
	}

	after, err := st.ListEvents(ctx, "", e1.Seq, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != 1 || after[0].EventID != "e2" {
		t.Fatalf("after=%+v", after)
	}

	last, err = st.LastSeq(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if last != e3.Seq {
		t.Fatalf("last=%d want %d", last, e3.Seq)
	}

	if _, err := st.GetEvent(ctx, "missing"); err != store.ErrEventNotFound {
		t.Fatalf("missing event err=%v", err)
	}
}
