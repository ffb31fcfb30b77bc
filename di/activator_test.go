package di_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davianspace/davianspace-dependencyinjection/di"
)

func TestProvideConstructorReportsImplType(t *testing.T) {
	t.Parallel()

	reg := di.NewFactoryRegistry()
	impl, err := reg.ProvideConstructor(NewDatabase)
	require.NoError(t, err)
	assert.Equal(t, di.TypeOf[*Database](), impl)

	_, ok := reg.Lookup(impl)
	assert.True(t, ok)
	_, ok = reg.Lookup(di.TypeOf[*UserRepository]())
	assert.False(t, ok)
}

func TestProvideConstructorRejectsBadShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ctor any
		want error
	}{
		{name: "nil", ctor: nil, want: di.ErrNilConstructor},
		{name: "not a function", ctor: "NewDatabase", want: di.ErrNotAFunction},
		{name: "no returns", ctor: func() {}, want: di.ErrBadConstructorShape},
		{name: "three returns", ctor: func() (int, int, error) { return 0, 0, nil }, want: di.ErrBadConstructorShape},
		{name: "second return not error", ctor: func() (int, string) { return 0, "" }, want: di.ErrBadConstructorShape},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			reg := di.NewFactoryRegistry()
			_, err := reg.ProvideConstructor(tc.ctor)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestConstructorErrorPropagates(t *testing.T) {
	t.Parallel()

	c := di.NewCollection()
	require.NoError(t, di.AddSingleton[*Database](c, func() (*Database, error) {
		return nil, errBoom
	}))

	ctr, err := c.Build()
	require.NoError(t, err)
	defer func() { _ = ctr.Dispose() }()

	_, err = di.Resolve[*Database](ctr)
	assert.ErrorIs(t, err, errBoom)
}

func TestConstructorPanicBecomesError(t *testing.T) {
	t.Parallel()

	c := di.NewCollection()
	require.NoError(t, di.AddTransient[*Database](c, func() *Database {
		panic("bad wiring")
	}))

	ctr, err := c.Build()
	require.NoError(t, err)
	defer func() { _ = ctr.Dispose() }()

	_, err = di.Resolve[*Database](ctr)
	require.ErrorIs(t, err, di.ErrConstructorPanic)

	var pe interface{ Recovered() any }
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "bad wiring", pe.Recovered())
}

func TestAddConstructorRejectsMismatchedImpl(t *testing.T) {
	t.Parallel()

	c := di.NewCollection()
	err := di.AddSingleton[*Database](c, NewConsoleLogger)

	var mismatch di.ImplementationMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, di.TypeOf[*Database](), mismatch.Service)
	assert.Equal(t, di.TypeOf[*ConsoleLogger](), mismatch.Impl)
}

func TestCustomFactoryLookup(t *testing.T) {
	t.Parallel()

	reg := di.NewFactoryRegistry().
		Provide(di.TypeOf[*Database](), func(di.Resolver) (any, error) {
			return &Database{}, nil
		})

	c := di.NewCollection()
	c.UseFactoryLookup(reg)
	require.NoError(t, c.RegisterType(di.TypeOf[*Database](), di.TypeOf[*Database](), di.Singleton))

	ctr, err := c.Build()
	require.NoError(t, err)
	defer func() { _ = ctr.Dispose() }()

	db, err := di.Resolve[*Database](ctr)
	require.NoError(t, err)
	assert.NotNil(t, db)
}

func TestConstructorMissingFromLookup(t *testing.T) {
	t.Parallel()

	c := di.NewCollection()
	c.UseFactoryLookup(di.NewFactoryRegistry())
	require.NoError(t, c.RegisterType(di.TypeOf[*Database](), di.TypeOf[*Database](), di.Singleton))

	ctr, err := c.Build()
	require.NoError(t, err)
	defer func() { _ = ctr.Dispose() }()

	_, err = di.Resolve[*Database](ctr)
	var missing di.MissingServiceError
	require.True(t, errors.As(err, &missing))
}
