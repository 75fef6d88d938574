package core

import (
	"errors"
	"testing"
)

func TestSnapshot_Object(t *testing.T) {
	s := NewSnapshot(NewSection("a", "x", "y"), NewSection[string]("empty"))

	cases := []struct {
		name    string
		path    IndexPath
		want    string
		wantErr bool
	}{
		{"first", Path(0, 0), "x", false},
		{"last", Path(0, 1), "y", false},
		{"item past end", Path(0, 2), "", true},
		{"negative item", Path(0, -1), "", true},
		{"empty section", Path(1, 0), "", true},
		{"section past end", Path(2, 0), "", true},
		{"negative section", Path(-1, 0), "", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := s.Object(c.path)
			if c.wantErr {
				if !errors.Is(err, ErrIndexOutOfRange) {
					t.Fatalf("Object(%s) error = %v, want ErrIndexOutOfRange", c.path, err)
				}
				return
			}
			if err != nil || got != c.want {
				t.Errorf("Object(%s) = %q, %v; want %q", c.path, got, err, c.want)
			}
		})
	}
}

func TestSnapshot_Equal(t *testing.T) {
	base := NewSnapshot(Section[string]{ID: "a", Title: "A", Objects: []string{"x"}})

	cases := []struct {
		name  string
		other Snapshot[string]
		want  bool
	}{
		{"same", NewSnapshot(Section[string]{ID: "a", Title: "A", Objects: []string{"x"}}), true},
		{"title differs", NewSnapshot(Section[string]{ID: "a", Title: "B", Objects: []string{"x"}}), false},
		{"id differs", NewSnapshot(Section[string]{ID: "b", Title: "A", Objects: []string{"x"}}), false},
		{"object differs", NewSnapshot(Section[string]{ID: "a", Title: "A", Objects: []string{"y"}}), false},
		{"extra section", NewSnapshot(Section[string]{ID: "a", Title: "A", Objects: []string{"x"}}, NewSection[string]("b")), false},
	}
	for _, c := range cases {
		if got := base.Equal(c.other); got != c.want {
			t.Errorf("%s: Equal = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestSnapshot_CloneIsolation(t *testing.T) {
	s := NewSnapshot(NewSection("a", 1, 2))
	c := s.Clone()
	c.Sections[0].Objects[0] = 9
	if s.Sections[0].Objects[0] != 1 {
		t.Error("mutating a clone changed the original")
	}
}

func TestChangeKind_String(t *testing.T) {
	cases := map[ChangeKind]string{
		SectionInserted: "SECTION_INSERT",
		SectionDeleted:  "SECTION_DELETE",
		ObjectInserted:  "INSERT",
		ObjectDeleted:   "DELETE",
		ObjectMoved:     "MOVE",
		ObjectUpdated:   "UPDATE",
		ChangeKind(0):   "ChangeKind(0)",
		ChangeKind(42):  "ChangeKind(42)",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("ChangeKind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}

func TestChange_String(t *testing.T) {
	cases := []struct {
		c    Change[string]
		want string
	}{
		{Change[string]{Kind: ObjectInserted, Object: "x", New: Path(0, 1)}, "INSERT x at [0,1]"},
		{Change[string]{Kind: ObjectMoved, Object: "x", Old: Path(0, 0), New: Path(1, 2)}, "MOVE x [0,0] -> [1,2]"},
		{Change[string]{Kind: SectionDeleted, SectionID: "s", Old: Path(3, 0)}, `SECTION_DELETE "s" at 3`},
	}
	for _, c := range cases {
		if got := c.c.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}
