package transfer

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/jbweber/rcopy/internal/rbd"
	"github.com/jbweber/rcopy/internal/selector"
)

// mockLister is a mock implementation of ImageLister for testing.
type mockLister struct {
	images  []string
	listErr error

	existsCalls []rbd.Ref
	listCalls   []string
}

func (m *mockLister) ListImages(ctx context.Context, pool string) ([]string, error) {
	m.listCalls = append(m.listCalls, pool)
	return m.images, m.listErr
}

func (m *mockLister) ImageExists(ctx context.Context, ref rbd.Ref) (bool, error) {
	m.existsCalls = append(m.existsCalls, ref)
	for _, name := range m.images {
		if name == ref.Image {
			return true, nil
		}
	}
	return false, nil
}

func TestPlan(t *testing.T) {
	lister := func() *mockLister {
		return &mockLister{images: []string{"vm-1", "vm-2", "db-1"}}
	}

	tests := []struct {
		name    string
		src     selector.Source
		dest    selector.Destination
		want    []selector.Pair
		wantErr error
	}{
		{
			name: "single image keeps its name",
			src:  selector.Source{Pool: "rbd", Image: "vm-1"},
			dest: selector.Destination{Pool: "backup"},
			want: []selector.Pair{
				{Source: selector.Ref{Pool: "rbd", Image: "vm-1"}, Destination: selector.Ref{Pool: "backup", Image: "vm-1"}},
			},
		},
		{
			name: "single image renamed",
			src:  selector.Source{Pool: "rbd", Image: "db-1"},
			dest: selector.Destination{Pool: "backup", Image: "db-restored"},
			want: []selector.Pair{
				{Source: selector.Ref{Pool: "rbd", Image: "db-1"}, Destination: selector.Ref{Pool: "backup", Image: "db-restored"}},
			},
		},
		{
			name:    "missing source",
			src:     selector.Source{Pool: "rbd", Image: "gone"},
			dest:    selector.Destination{Pool: "backup"},
			wantErr: ErrSourceNotFound,
		},
		{
			name: "wildcard",
			src:  selector.Source{Pool: "rbd", Image: "vm-*"},
			dest: selector.Destination{Pool: "backup", Image: "*"},
			want: []selector.Pair{
				{Source: selector.Ref{Pool: "rbd", Image: "vm-1"}, Destination: selector.Ref{Pool: "backup", Image: "vm-1"}},
				{Source: selector.Ref{Pool: "rbd", Image: "vm-2"}, Destination: selector.Ref{Pool: "backup", Image: "vm-2"}},
			},
		},
		{
			name: "wildcard without matches",
			src:  selector.Source{Pool: "rbd", Image: "nothing*"},
			dest: selector.Destination{Pool: "backup"},
			want: []selector.Pair{},
		},
		{
			name: "wildcard without matches into a single name",
			src:  selector.Source{Pool: "rbd", Image: "nothing*"},
			dest: selector.Destination{Pool: "backup", Image: "renamed"},
			want: []selector.Pair{},
		},
		{
			name:    "wildcard into a single name",
			src:     selector.Source{Pool: "rbd", Image: "*"},
			dest:    selector.Destination{Pool: "backup", Image: "one"},
			wantErr: selector.ErrCountMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Plan(context.Background(), tt.src, tt.dest, lister())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Plan() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Plan() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Plan() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlan_ListFails(t *testing.T) {
	l := &mockLister{listErr: errors.New("rbd: error opening pool")}

	_, err := Plan(context.Background(), selector.Source{Pool: "rbd", Image: "*"}, selector.Destination{Pool: "b"}, l)
	if err == nil {
		t.Fatal("Plan() expected error, got nil")
	}
	if len(l.existsCalls) != 0 {
		t.Error("wildcard sources should not be checked one by one")
	}
}

func TestPlan_PlainSourceDoesNotList(t *testing.T) {
	l := &mockLister{images: []string{"disk"}}

	if _, err := Plan(context.Background(), selector.Source{Pool: "rbd", Image: "disk"}, selector.Destination{Pool: "b"}, l); err != nil {
		t.Fatalf("Plan() unexpected error: %v", err)
	}
	if len(l.listCalls) != 0 {
		t.Error("a plain source should not list the pool")
	}
}
