package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrdering(t *testing.T) {
	tests := []struct {
		val  string
		want []DBOrdering
	}{
		{val: "", want: nil},
		{val: "name", want: []DBOrdering{{Field: "name", Ascending: true}}},
		{val: "-start_date, name,,-", want: []DBOrdering{{Field: "start_date"}, {Field: "name", Ascending: true}}},
	}
	for _, tt := range tests {
		t.Run(tt.val, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOrdering(tt.val))
		})
	}
}

func TestCleanOrdering(t *testing.T) {
	ordering := ParseOrdering("-week,password,skill")
	want := []DBOrdering{{Field: "week"}, {Field: "skill", Ascending: true}}
	assert.Equal(t, want, CleanOrdering(ordering, "week", "skill"))
	assert.Nil(t, CleanOrdering(nil, "week"))
	assert.Empty(t, CleanOrdering(ordering))
}

func TestPage_Bounds(t *testing.T) {
	tests := []struct {
		name      string
		page      Page
		n         int
		wantStart int
		wantEnd   int
	}{
		{name: "no limit", page: Page{}, n: 5, wantStart: 0, wantEnd: 5},
		{name: "first page", page: Page{Limit: 2}, n: 5, wantStart: 0, wantEnd: 2},
		{name: "last page", page: Page{Limit: 2, Offset: 4}, n: 5, wantStart: 4, wantEnd: 5},
		{name: "past the end", page: Page{Limit: 2, Offset: 10}, n: 5, wantStart: 5, wantEnd: 5},
		{name: "negative offset", page: Page{Limit: 2, Offset: -1}, n: 5, wantStart: 0, wantEnd: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.page.Bounds(tt.n)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestTransact_noDB(t *testing.T) {
	var called bool
	err := Transact(context.Background(), nil, func(exec DBExecutor) error {
		called = true
		assert.Nil(t, exec)
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
}
