//go:build unit

package neo4j

import (
	"context"
	"errors"
	"testing"

	"github.com/LerianStudio/lib-graphkit/graphkit/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexSpec_Statement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		spec    IndexSpec
		want    string
		wantErr bool
	}{
		{
			name: "unnamed single property",
			spec: IndexSpec{Label: "Species", Properties: []string{"name"}},
			want: "CREATE INDEX IF NOT EXISTS FOR (n:`Species`) ON (n.`name`)",
		},
		{
			name: "named composite",
			spec: IndexSpec{Name: "person_name", Label: "Person", Properties: []string{"first", "last"}},
			want: "CREATE INDEX `person_name` IF NOT EXISTS FOR (n:`Person`) ON (n.`first`, n.`last`)",
		},
		{
			name: "backticks are escaped",
			spec: IndexSpec{Label: "We`ird", Properties: []string{"x"}},
			want: "CREATE INDEX IF NOT EXISTS FOR (n:`We``ird`) ON (n.`x`)",
		},
		{name: "missing label", spec: IndexSpec{Properties: []string{"x"}}, wantErr: true},
		{name: "missing properties", spec: IndexSpec{Label: "A"}, wantErr: true},
		{name: "blank property", spec: IndexSpec{Label: "A", Properties: []string{" "}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.spec.Statement()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIndex)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnsureIndexes_RunsEverySpecAndJoinsErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := &fakeFactory{}

	ext, err := NewWithHost(ctx, host.NewApp(), WithDriverFactory(f.build))
	require.NoError(t, err)

	err = ext.EnsureIndexes(ctx,
		IndexSpec{Label: "Species", Properties: []string{"name"}},
		IndexSpec{Label: ""},
		IndexSpec{Label: "Genus", Properties: []string{"name"}},
	)
	assert.ErrorIs(t, err, ErrInvalidIndex)

	require.Len(t, f.drivers[0].sessions, 2)
	assert.Equal(t, []string{"CREATE INDEX IF NOT EXISTS FOR (n:`Species`) ON (n.`name`)"}, f.drivers[0].sessions[0].queries)
	assert.Equal(t, []string{"CREATE INDEX IF NOT EXISTS FOR (n:`Genus`) ON (n.`name`)"}, f.drivers[0].sessions[1].queries)
}

func TestWithIndexes_CreatedOnAttach(t *testing.T) {
	t.Parallel()

	f := &fakeFactory{}

	_, err := NewWithHost(context.Background(), host.NewApp(),
		WithDriverFactory(f.build),
		WithIndexes(IndexSpec{Label: "Species", Properties: []string{"name"}}),
	)
	require.NoError(t, err)

	require.Len(t, f.drivers[0].sessions, 1)
	assert.Equal(t, 1, f.drivers[0].sessions[0].closeCount())
}

func TestDropIndex(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := &fakeFactory{}

	ext, err := NewWithHost(ctx, host.NewApp(), WithDriverFactory(f.build))
	require.NoError(t, err)

	assert.ErrorIs(t, ext.DropIndex(ctx, ""), ErrInvalidIndex)
	require.NoError(t, ext.DropIndex(ctx, "species_name"))
	assert.Equal(t, []string{"DROP INDEX `species_name` IF EXISTS"}, f.drivers[0].lastSession().queries)
}

func TestWithIndexes_FailureAbortsAttach(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := &fakeFactory{behavior: sessionBehavior{runErr: errors.New("index failed")}}
	app := host.NewApp()
	ext := New(
		WithDriverFactory(f.build),
		WithIndexes(IndexSpec{Label: "Species", Properties: []string{"name"}}),
	)

	err := ext.InitApp(ctx, app)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create index on Species")

	_, registered := app.LookupExtension(ExtensionKey)
	assert.False(t, registered)
	assert.False(t, ext.IsConnected())
	assert.Nil(t, ext.Host())
	assert.Equal(t, host.ScopeNone, ext.Scope())

	require.Len(t, f.drivers, 1)
	assert.Equal(t, 1, f.drivers[0].closeCount())
	assert.Equal(t, 1, f.drivers[0].sessions[0].closeCount())

	_, err = NewWithHost(ctx, host.NewApp(), WithDriverFactory(f.build),
		WithIndexes(IndexSpec{Label: "Species", Properties: []string{"name"}}))
	require.Error(t, err)
	assert.Equal(t, 1, f.drivers[1].closeCount())
}

func TestWithIndexes_FailureOnReattachLeavesNoDriver(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := &fakeFactory{}
	ext := New(WithDriverFactory(f.build))

	require.NoError(t, ext.InitApp(ctx, host.NewApp()))

	f.mu.Lock()
	f.behavior = sessionBehavior{runErr: errors.New("index failed")}
	f.mu.Unlock()

	WithIndexes(IndexSpec{Label: "Genus", Properties: []string{"name"}})(ext)

	require.Error(t, ext.InitApp(ctx, host.NewApp()))
	assert.False(t, ext.IsConnected())
	assert.Equal(t, 1, f.drivers[0].closeCount())
	assert.Equal(t, 1, f.drivers[1].closeCount())
}
