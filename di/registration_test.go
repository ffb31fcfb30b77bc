package di_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davianspace/davianspace-dependencyinjection/di"
)

func TestRegistrationRequiresExactlyOneStrategy(t *testing.T) {
	t.Parallel()

	c := di.NewCollection()

	err := c.Register(di.Registration{
		ServiceType: di.TypeOf[*Database](),
		Lifetime:    di.Singleton,
		Instance:    &Database{},
		Factory:     func(di.Resolver) (any, error) { return &Database{}, nil },
	})
	require.Error(t, err)

	err = c.Register(di.Registration{
		ServiceType: di.TypeOf[*Database](),
		Lifetime:    di.Singleton,
	})
	require.Error(t, err)
}

func TestRegistrationRejectsNonSingletonInstance(t *testing.T) {
	t.Parallel()

	c := di.NewCollection()
	err := c.Register(di.Registration{
		ServiceType: di.TypeOf[*Database](),
		Lifetime:    di.Scoped,
		Instance:    &Database{},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "singleton")
}

func TestRegistrationRejectsNonComparableKey(t *testing.T) {
	t.Parallel()

	c := di.NewCollection()
	err := c.RegisterKeyedInstance(di.TypeOf[*Database](), []string{"not", "comparable"}, &Database{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "comparable")
}

func TestRegisterRejectsNilFuncs(t *testing.T) {
	t.Parallel()

	c := di.NewCollection()
	assert.ErrorIs(t, c.RegisterFactory(di.TypeOf[*Database](), di.Singleton, nil), di.ErrNilConstructor)
	assert.ErrorIs(t, c.RegisterCtxFactory(di.TypeOf[*Database](), di.Singleton, nil), di.ErrNilConstructor)
	assert.ErrorIs(t, c.RegisterDecorator(di.TypeOf[*Database](), nil), di.ErrNilConstructor)
	assert.ErrorIs(t, di.AddFactory[*Database](c, di.Singleton, nil), di.ErrNilConstructor)
	assert.ErrorIs(t, di.AddCtxFactory[*Database](c, di.Singleton, nil), di.ErrNilConstructor)
	assert.ErrorIs(t, di.AddDecorator[*Database](c, nil), di.ErrNilConstructor)
}

func TestLifetimeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "singleton", di.Singleton.String())
	assert.Equal(t, "scoped", di.Scoped.String())
	assert.Equal(t, "transient", di.Transient.String())
}
