package protocol

import "testing"

func TestBlock(t *testing.T) {
	got := Block(18789)
	want := [4]int{18789, 18791, 18800, 18809}
	if got != want {
		t.Errorf("Block(18789) = %v, want %v", got, want)
	}
}

func TestHintAdvanceClearsBlock(t *testing.T) {
	if HintAdvance < BlockSpan {
		t.Errorf("HintAdvance %d must clear a whole block of span %d", HintAdvance, BlockSpan)
	}
}

func TestURLs(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"vnc", VNCURL(18789), "http://localhost:18809/vnc.html?autoconnect=true&reconnect=true"},
		{"dashboard with token", DashboardURL(18789, "abc"), "http://localhost:18789/#token=abc"},
		{"dashboard without token", DashboardURL(18789, ""), "http://localhost:18789/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestPortMappings(t *testing.T) {
	m := PortMappings(19009)
	want := [][2]int{{19009, 19009}, {19011, 19011}, {19020, ContainerCDPPort}, {19029, ContainerNoVNCPort}}
	if len(m) != len(want) {
		t.Fatalf("len = %d, want %d", len(m), len(want))
	}
	for i := range want {
		if m[i] != want[i] {
			t.Errorf("mapping[%d] = %v, want %v", i, m[i], want[i])
		}
	}
}

func TestContainerName(t *testing.T) {
	if got := ContainerName("alpha"); got != "openclaw-alpha" {
		t.Errorf("ContainerName = %q", got)
	}
}
