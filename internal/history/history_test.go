package history

import "testing"

func TestRecordRequestAndResponseGroupByOrigin(t *testing.T) {
	r := New()
	r.RecordRequest("https://a.example/x")
	r.RecordRequest("https://a.example/y")
	r.RecordResponse("https://a.example/x", 200)
	r.RecordResponse("https://a.example/y", 500)

	s, ok := r.Get("https://a.example")
	if !ok {
		t.Fatal("expected stats for origin")
	}
	if s.Requests != 2 || s.Responses != 2 || s.ErrorStatus != 1 {
		t.Fatalf("got %+v", s)
	}
}

func TestListSortedByOrigin(t *testing.T) {
	r := New()
	r.RecordRequest("https://b.example/")
	r.RecordRequest("https://a.example/")
	list := r.List()
	if len(list) != 2 || list[0].Origin != "https://a.example" {
		t.Fatalf("got %+v", list)
	}
}

func TestGetUnknownOrigin(t *testing.T) {
	r := New()
	if _, ok := r.Get("https://nowhere.example"); ok {
		t.Fatal("expected no stats for unrecorded origin")
	}
}
