package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/YuminosukeSato/scigo-accel/backend"
	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
)

// SnapshotVersion はスナップショット形式のバージョン（互換性チェック用）
const SnapshotVersion = "1"

// SnapshotParams は推定器のハイパーパラメータ（シリアライゼーション用）
type SnapshotParams struct {
	Bias           bool     `json:"bias,omitempty"`
	AssumeCentered bool     `json:"assume_centered,omitempty"`
	FitIntercept   bool     `json:"fit_intercept,omitempty"`
	Alpha          float64  `json:"alpha,omitempty"`
	Method         string   `json:"method,omitempty"`
	ResultOptions  []string `json:"result_options,omitempty"`
}

// Snapshot は推定器の完全な状態を表す構造体
//
// 確定済みの推定値に加えて生の部分結果を保持するため、復元後の推定器は
// PartialFit による蓄積を継続できる。バックエンドやロガーへの参照は含まない。
type Snapshot struct {
	// ModelType は推定器の種類（IncrementalEmpiricalCovariance 等）
	ModelType string `json:"model_type"`

	// Version はスナップショット形式のバージョン
	Version string `json:"version"`

	Params SnapshotParams `json:"params"`
	State  ModelState     `json:"state"`

	// Attributes は確定済みの推定値（covariance, location, coef 等）
	Attributes map[string][]float64 `json:"attributes,omitempty"`

	// 部分結果。推定器の種類に応じていずれか一つが設定される
	Covariance      *backend.CovariancePartial      `json:"covariance_partial,omitempty"`
	Regression      *backend.RegressionPartial      `json:"regression_partial,omitempty"`
	BasicStatistics *backend.BasicStatisticsPartial `json:"basic_statistics_partial,omitempty"`
}

// Snapshotter はスナップショットを介して保存・復元できる推定器のインターフェース
type Snapshotter interface {
	// Snapshot は保存前の明示的な確定処理を行い、状態を返す。
	// 元の推定器の状態は変更しない
	Snapshot() (*Snapshot, error)

	// Restore はスナップショットから状態を復元する
	Restore(s *Snapshot) error
}

// Validate はスナップショットの妥当性を検証
func (s *Snapshot) Validate(modelType string) error {
	if s.ModelType == "" {
		return scigoErrors.NewValueError("Snapshot.Validate", "model_type is required")
	}
	if s.ModelType != modelType {
		return scigoErrors.NewValueError("Snapshot.Validate",
			fmt.Sprintf("snapshot of %s cannot restore %s", s.ModelType, modelType))
	}
	if s.Version != SnapshotVersion {
		return scigoErrors.NewValueError("Snapshot.Validate",
			fmt.Sprintf("unsupported snapshot version %q", s.Version))
	}
	if s.State.NeedsFinalize {
		return scigoErrors.NewValueError("Snapshot.Validate", "snapshot must be finalized")
	}
	return nil
}

// Float は単一値の属性を返す
func (s *Snapshot) Float(name string) (float64, bool) {
	v, ok := s.Attributes[name]
	if !ok || len(v) != 1 {
		return 0, false
	}
	return v[0], true
}

// jsonFloat は NaN/±Inf を文字列として書き出す float64。
// 1行だけの分散など、非有限の推定値もJSONで保存できる。
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(v)
}

func (f *jsonFloat) UnmarshalJSON(data []byte) error {
	var v float64
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		parsed, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return scigoErrors.Wrapf(err, "invalid attribute value %q", str)
		}
		v = parsed
	} else if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

type snapshotAlias Snapshot

type snapshotJSON struct {
	*snapshotAlias
	Attributes map[string][]jsonFloat `json:"attributes,omitempty"`
}

// MarshalJSON は Attributes の非有限値を文字列に置き換えて書き出す
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	aux := snapshotJSON{snapshotAlias: (*snapshotAlias)(s)}
	if s.Attributes != nil {
		aux.Attributes = make(map[string][]jsonFloat, len(s.Attributes))
		for name, values := range s.Attributes {
			out := make([]jsonFloat, len(values))
			for i, v := range values {
				out[i] = jsonFloat(v)
			}
			aux.Attributes[name] = out
		}
	}
	return json.Marshal(aux)
}

// UnmarshalJSON は MarshalJSON の逆変換
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	aux := snapshotJSON{snapshotAlias: (*snapshotAlias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.Attributes = nil
	if aux.Attributes != nil {
		s.Attributes = make(map[string][]float64, len(aux.Attributes))
		for name, values := range aux.Attributes {
			out := make([]float64, len(values))
			for i, v := range values {
				out[i] = float64(v)
			}
			s.Attributes[name] = out
		}
	}
	return nil
}

// ToJSON はスナップショットをJSON形式にシリアライズ
func (s *Snapshot) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// FromJSON はJSON形式からスナップショットをデシリアライズ
func (s *Snapshot) FromJSON(data []byte) error {
	return json.Unmarshal(data, s)
}
