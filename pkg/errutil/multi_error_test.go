package errutil

import (
	"errors"
	"io/fs"
	"testing"

	"src.weft.sh/pkg/tt"
)

var (
	errSave  = errors.New("save failed")
	errClose = errors.New("close failed")
	errFlush = errors.New("flush failed")
)

func msg(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}

func TestMulti(t *testing.T) {
	multi := func(errs []error) string { return msg(Multi(errs...)) }
	tt.Test(t, tt.Fn("Multi", multi).ArgsFmt("%v"), tt.Table{
		tt.Args([]error(nil)).Rets("<nil>"),
		tt.Args([]error{nil, nil}).Rets("<nil>"),
		tt.Args([]error{nil, errSave}).Rets("save failed"),
		tt.Args([]error{errSave, nil, errClose}).
			Rets("multiple errors: save failed; close failed"),
		tt.Args([]error{Multi(errSave, nil), Multi(errClose, errFlush)}).
			Rets("multiple errors: save failed; close failed; flush failed"),
	})
}

func TestMulti_SingleErrorReturnedAsIs(t *testing.T) {
	if err := Multi(nil, errSave, nil); err != errSave {
		t.Errorf("Multi(nil, errSave, nil) = %v, want errSave itself", err)
	}
}

func TestMulti_Unwrap(t *testing.T) {
	pathErr := &fs.PathError{Op: "open", Path: "db", Err: fs.ErrNotExist}
	err := Multi(errSave, pathErr)
	if !errors.Is(err, errSave) || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("errors.Is does not see the parts of %v", err)
	}
	var target *fs.PathError
	if !errors.As(err, &target) || target.Path != "db" {
		t.Errorf("errors.As does not find the *fs.PathError in %v", err)
	}
	if errors.Is(err, errClose) {
		t.Errorf("errors.Is(%v, errClose) = true", err)
	}
}
