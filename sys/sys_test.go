package sys_test

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/chardev/sys"
	"go.viam.com/chardev/testutils/inject"
)

func TestExact(t *testing.T) {
	injectOS := &inject.Syscalls{}
	injectOS.ReadFunc = func(fd sys.FD, buf []byte) (int, error) {
		return 3, nil
	}
	injectOS.WriteFunc = func(fd sys.FD, buf []byte) (int, error) {
		return len(buf), nil
	}

	t.Run("short read", func(t *testing.T) {
		err := sys.ReadExact(injectOS, 4, make([]byte, 5))
		var mismatch *sys.LengthMismatchError
		test.That(t, errors.As(err, &mismatch), test.ShouldBeTrue)
		test.That(t, mismatch.Op, test.ShouldEqual, sys.OpRead)
		test.That(t, mismatch.Want, test.ShouldEqual, 5)
		test.That(t, mismatch.Got, test.ShouldEqual, 3)
		test.That(t, sys.KindOf(err), test.ShouldEqual, sys.KindLength)
	})

	t.Run("full write", func(t *testing.T) {
		test.That(t, sys.WriteExact(injectOS, 4, make([]byte, 5)), test.ShouldBeNil)
	})

	t.Run("short write", func(t *testing.T) {
		injectOS.WriteFunc = func(fd sys.FD, buf []byte) (int, error) {
			return len(buf) - 1, nil
		}
		err := sys.WriteExact(injectOS, 4, make([]byte, 5))
		test.That(t, sys.KindOf(err), test.ShouldEqual, sys.KindLength)
	})

	t.Run("os error passes through", func(t *testing.T) {
		injectOS.ReadFunc = func(fd sys.FD, buf []byte) (int, error) {
			return 0, &sys.OSError{Op: sys.OpRead, FD: fd}
		}
		err := sys.ReadExact(injectOS, 4, make([]byte, 5))
		test.That(t, sys.KindOf(err), test.ShouldEqual, sys.KindRead)
	})

	test.That(t, injectOS.Ops(), test.ShouldResemble, []string{"read", "write", "write", "read"})
}
