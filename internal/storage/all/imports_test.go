package all

import (
	"slices"
	"testing"

	"regatta/internal/storage"
)

func TestAllBackendsRegistered(t *testing.T) {
	t.Parallel()

	kinds := storage.ListKinds()
	for _, want := range []string{"mssql", "mysql", "postgres", "sqlite"} {
		if !slices.Contains(kinds, want) {
			t.Errorf("ListKinds() = %v; missing %q", kinds, want)
		}
	}
}
