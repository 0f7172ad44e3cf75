package shader

import "testing"

func TestDefinesExpand(t *testing.T) {
	tests := []struct {
		name    string
		defines Defines
		src     string
		want    string
	}{
		{
			name:    "single",
			defines: Defines{"MAX_JOINTS": 64},
			src:     "uniform mat4 uJoints[{{MAX_JOINTS}}];",
			want:    "uniform mat4 uJoints[64];",
		},
		{
			name:    "repeated and several",
			defines: Defines{"A": 1, "B": 22},
			src:     "{{A}} {{B}} {{A}}",
			want:    "1 22 1",
		},
		{
			name:    "unknown placeholder kept",
			defines: Defines{"A": 1},
			src:     "{{C}}",
			want:    "{{C}}",
		},
		{
			name: "no defines",
			src:  "void main() {}",
			want: "void main() {}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.defines.Expand(tt.src); got != tt.want {
				t.Errorf("Expand() = %q, want %q", got, tt.want)
			}
		})
	}
}
