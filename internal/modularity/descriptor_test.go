package modularity

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDescriptor(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		d, err := NewDescriptor(hookModuleType, "core")
		require.NoError(t, err)

		assert.Equal(t, "core", d.Name())
		assert.Equal(t, hookModuleType, d.Type())
		assert.Equal(t, WhenAvailable, d.Mode)
		assert.Equal(t, NotStarted, d.State())
		assert.NotNil(t, d.DependsOn)
		assert.Empty(t, d.DependsOn)
	})

	t.Run("options", func(t *testing.T) {
		d, err := NewDescriptor(hookModuleType, "shell",
			WithMode(OnApplicationStart),
			WithDependsOn("a", "b"),
			WithDependsOn("c"),
			WithGroup("core"),
			WithRef("file:///opt/modules/shell"),
		)
		require.NoError(t, err)

		assert.Equal(t, OnApplicationStart, d.Mode)
		assert.Equal(t, []string{"a", "b", "c"}, d.DependsOn)
		assert.Equal(t, "core", d.Group)
		assert.Equal(t, "file:///opt/modules/shell", d.Ref)
	})

	t.Run("error cases", func(t *testing.T) {
		_, err := NewDescriptor(nil, "x")
		assert.ErrorIs(t, err, ErrInvalidArgument)

		_, err = NewDescriptor(hookModuleType, "")
		assert.ErrorIs(t, err, ErrInvalidArgument)

		_, err = NewDescriptor(hookModuleType, "x", WithDependsOn("a", ""))
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.ErrorContains(t, err, "position 1")
	})
}

func TestParseInitializationMode(t *testing.T) {
	testCases := []struct {
		in      string
		want    InitializationMode
		wantErr bool
	}{
		{in: "", want: WhenAvailable},
		{in: "when_available", want: WhenAvailable},
		{in: "on_application_start", want: OnApplicationStart},
		{in: "OnDemand", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseInitializationMode(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			if tc.in != "" {
				assert.Equal(t, tc.in, got.String())
			}
		})
	}
}

func TestDescriptorAdvance(t *testing.T) {
	d := mustDescriptor("a")

	assert.True(t, d.advance(Initializing))
	assert.False(t, d.advance(Initializing), "same state is not a transition")
	assert.True(t, d.advance(Initialized))
	assert.False(t, d.advance(Initializing), "states never move backwards")
	assert.False(t, d.advance(NotStarted))
	assert.Equal(t, Initialized, d.State())
}

func TestDescriptorAdvance_Concurrent(t *testing.T) {
	d := mustDescriptor("a")

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.advance(Initializing) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "exactly one goroutine performs the transition")
	assert.Equal(t, Initializing, d.State())
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "*github.com/vk/modkit/internal/modularity.hookModule", TypeName(hookModuleType))
	assert.Equal(t, "github.com/vk/modkit/internal/modularity.hookModule", TypeName(hookModuleType.Elem()))
	assert.Equal(t, "string", TypeName(reflect.TypeFor[string]()))
	assert.Equal(t, "<nil>", TypeName(nil))
}

func TestErrorsMatchSentinels(t *testing.T) {
	cause := errors.New("boom")
	testCases := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"duplicate", &DuplicateModuleError{Name: "a"}, ErrDuplicateModuleName},
		{"missing dependency", &DependencyNotFoundError{Module: "a", Dependency: "b"}, ErrDependencyModuleNotFound},
		{"cycle", &CyclicDependencyError{Path: []string{"a", "b", "a"}}, ErrCyclicDependency},
		{"initialize", &InitializeError{Module: "a", Err: cause}, ErrModuleInitialize},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.err, tc.sentinel)
			assert.NotEmpty(t, tc.err.Error())
		})
	}

	assert.ErrorIs(t, &InitializeError{Module: "a", Err: cause}, cause)
	assert.Equal(t, []string{"a", "b"}, (&CyclicDependencyError{Path: []string{"a", "b", "a"}}).Modules())
}
