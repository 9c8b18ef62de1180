package model

import (
	"encoding/gob"
	"io"
	"os"

	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
)

// SaveModel はモデルのスナップショットをファイルに保存する
//
// 保存前に Snapshot() で明示的に確定処理を行う。確定に失敗した場合はファイルを作成しない。
//
// 使用例:
//
//	est := covariance.NewIncrementalEmpiricalCovariance()
//	// ... PartialFit ...
//	err := model.SaveModel(est, "cov.gob")
func SaveModel(m Snapshotter, filename string) error {
	s, err := m.Snapshot()
	if err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return scigoErrors.Wrap(err, "failed to create file")
	}
	defer file.Close()

	return encodeSnapshot(s, file)
}

// LoadModel はファイルからスナップショットを読み込み、モデルに復元する
//
// 使用例:
//
//	est := covariance.NewIncrementalEmpiricalCovariance()
//	err := model.LoadModel(est, "cov.gob")
func LoadModel(m Snapshotter, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return scigoErrors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	return LoadModelFromReader(m, file)
}

// SaveModelToWriter はモデルのスナップショットをio.Writerに保存する
func SaveModelToWriter(m Snapshotter, w io.Writer) error {
	s, err := m.Snapshot()
	if err != nil {
		return err
	}
	return encodeSnapshot(s, w)
}

// LoadModelFromReader はio.Readerからスナップショットを読み込み、モデルに復元する
func LoadModelFromReader(m Snapshotter, r io.Reader) error {
	var s Snapshot
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return scigoErrors.Wrap(err, "failed to decode model")
	}
	return m.Restore(&s)
}

// MarshalSnapshotJSON はモデルのスナップショットをJSONで返す
func MarshalSnapshotJSON(m Snapshotter) ([]byte, error) {
	s, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	return s.ToJSON()
}

// UnmarshalSnapshotJSON はJSONのスナップショットをモデルに復元する
func UnmarshalSnapshotJSON(m Snapshotter, data []byte) error {
	var s Snapshot
	if err := s.FromJSON(data); err != nil {
		return scigoErrors.Wrap(err, "failed to decode model")
	}
	return m.Restore(&s)
}

func encodeSnapshot(s *Snapshot, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(s); err != nil {
		return scigoErrors.Wrap(err, "failed to encode model")
	}
	return nil
}
