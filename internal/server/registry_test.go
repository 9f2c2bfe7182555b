package server

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	first, second := &Session{}, &Session{}

	require.True(t, r.TryRegister("Alice", first))
	require.Equal(t, "Alice", first.Name())
	require.False(t, r.TryRegister("Alice", second))
	require.Empty(t, second.Name())

	got, ok := r.Lookup("Alice")
	require.True(t, ok)
	require.Same(t, first, got)

	r.Remove("Alice", second)
	_, ok = r.Lookup("Alice")
	require.True(t, ok, "stale session must not remove a live registration")

	r.Remove("Alice", first)
	_, ok = r.Lookup("Alice")
	require.False(t, ok)
	require.Zero(t, r.Count())

	require.True(t, r.TryRegister("Alice", second))
	r.Remove("Alice", first)
	got, ok = r.Lookup("Alice")
	require.True(t, ok)
	require.Same(t, second, got)
}

func TestListAvailable(t *testing.T) {
	r := NewRegistry()
	sessions := map[string]*Session{}
	for _, name := range []string{"Dave", "alice", "Carol", "Bob", "Eve"} {
		s := &Session{}
		require.True(t, r.TryRegister(name, s))
		sessions[name] = s
	}

	sessions["Bob"].rating.Record(4)
	sessions["Bob"].rating.Record(1)

	// Carol challenged Dave
	sessions["Carol"].opponent = sessions["Dave"]
	sessions["Dave"].opponent = sessions["Carol"]
	sessions["Dave"].challenged = true
	sessions["Eve"].closed = true

	require.Equal(t, []PlayerInfo{
		{Name: "Bob", Rating: 2.5},
		{Name: "alice", Rating: 0},
	}, r.ListAvailable(""))

	require.Equal(t, []PlayerInfo{{Name: "alice", Rating: 0}}, r.ListAvailable("Bob"))
	require.Equal(t, 5, r.Count())
}

func TestValidName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Alice", true},
		{"abcdefghijkl", true},
		{"abcdefghijklm", false},
		{"ÅÅÅÅÅÅÅÅÅÅÅÅ", true},
		{"", false},
		{"tab\there", false},
		{"bell\a", false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, validName(tt.name), tt.name)
	}
}
