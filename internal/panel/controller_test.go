package panel

import "testing"

func TestInitial(t *testing.T) {
	if got := Initial(ViewportWide); got != Expanded {
		t.Errorf("wide viewport should start expanded, got %s", got)
	}
	if got := Initial(ViewportNarrow); got != Collapsed {
		t.Errorf("narrow viewport should start collapsed, got %s", got)
	}
}

func TestAfterGeneration(t *testing.T) {
	cases := []struct {
		name      string
		current   State
		viewport  Viewport
		succeeded bool
		want      State
	}{
		{"success on narrow collapses", Expanded, ViewportNarrow, true, Collapsed},
		{"success on wide stays", Expanded, ViewportWide, true, Expanded},
		{"failure on narrow stays", Expanded, ViewportNarrow, false, Expanded},
		{"failure on wide stays", Expanded, ViewportWide, false, Expanded},
		{"already collapsed stays collapsed", Collapsed, ViewportNarrow, true, Collapsed},
		{"failure never expands", Collapsed, ViewportWide, false, Collapsed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AfterGeneration(tc.current, tc.viewport, tc.succeeded); got != tc.want {
				t.Errorf("AfterGeneration(%s, %s, %v) = %s, want %s",
					tc.current, tc.viewport, tc.succeeded, got, tc.want)
			}
		})
	}
}

func TestToggle(t *testing.T) {
	if got := Toggle(Expanded); got != Collapsed {
		t.Errorf("Toggle(Expanded) = %s", got)
	}
	if got := Toggle(Collapsed); got != Expanded {
		t.Errorf("Toggle(Collapsed) = %s", got)
	}
}
