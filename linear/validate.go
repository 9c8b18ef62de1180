package linear

import (
	"github.com/YuminosukeSato/scigo-accel/backend"
	"github.com/YuminosukeSato/scigo-accel/core/model"
	"github.com/YuminosukeSato/scigo-accel/core/table"
	"github.com/YuminosukeSato/scigo-accel/pkg/errors"
)

// validateXY は X, y を変換し、これまでのバッチで確定した状態と照合する
// 状態自体は変更しない
func validateXY(op string, X, y any, state *model.StateManager) (*table.Table, *table.Table, error) {
	x, yt, err := table.FromXY(X, y)
	if err != nil {
		return nil, nil, err
	}
	if x.Cols() == 0 {
		return nil, nil, errors.NewValueError(op, "at least one feature is required")
	}
	if yt.Cols() == 0 {
		return nil, nil, errors.NewValueError(op, "at least one target is required")
	}
	if err := table.CheckFinite(op, x); err != nil {
		return nil, nil, err
	}
	if err := table.CheckFinite(op, yt); err != nil {
		return nil, nil, err
	}

	dtype, err := state.Check(op, x.Cols(), x.DType())
	if err != nil {
		return nil, nil, err
	}
	if x.DType() != dtype {
		x = x.AsType(dtype)
		yt = yt.AsType(dtype)
	}
	return x, yt, nil
}

func (c *config) snapshotParams() model.SnapshotParams {
	return model.SnapshotParams{
		FitIntercept: c.fitIntercept,
		Alpha:        c.alpha,
		Method:       c.method.String(),
	}
}

func (c *config) applySnapshotParams(p model.SnapshotParams) {
	c.fitIntercept = p.FitIntercept
	c.alpha = p.Alpha
	if m, err := backend.ParseMethod(p.Method); err == nil && m != backend.MethodByDefault {
		c.method = m
	}
}
