package forecast

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/dvloznov/spending-forecast/internal/artifacts"
	"github.com/dvloznov/spending-forecast/internal/features"
	"github.com/dvloznov/spending-forecast/internal/logger"
	"github.com/dvloznov/spending-forecast/internal/ml"
)

func init() {
	gob.Register(&ml.LinearRegression{})
	gob.Register(&ml.Ridge{})
	gob.Register(&ml.Lasso{})
	gob.Register(&ml.RandomForest{})
}

// UserHistory carries the per-user aggregates needed to synthesize feature
// rows for future periods, captured at training time so prediction needs no
// access to the raw transactions.
type UserHistory struct {
	AvgExpense     float64
	AvgTxCount     float64
	LastSalaryDate time.Time
	HasSalary      bool
	SalaryAmount   float64
	CycleDays      int
}

// Artifact is the unit of persistence: one user's fitted pipeline plus
// everything needed to apply it later.
type Artifact struct {
	UserID        string
	CandidateName string
	Params        ml.Params

	Features     FeatureSet
	Preprocessor *ml.ColumnTransformer
	Estimator    ml.Estimator
	History      UserHistory

	TrainedAt time.Time
	TestMSE   float64
	TestR2    float64
}

// BuildUserHistory summarizes an engineered table into the aggregates
// PredictFuture will hold constant over future periods.
func BuildUserHistory(rows []features.Row, salaryAmount float64, cycleDays int) UserHistory {
	h := UserHistory{
		SalaryAmount: salaryAmount,
		CycleDays:    cycleDays,
	}

	var sumExpense, sumCount float64
	for i := range rows {
		r := &rows[i]
		sumExpense += r.UserAvgMonthlyExpense
		sumCount += r.UserTransactionCountMonth
		if r.HasLastSalary && r.LastSalaryDate.After(h.LastSalaryDate) {
			h.LastSalaryDate = r.LastSalaryDate
			h.HasSalary = true
		}
	}
	if len(rows) > 0 {
		h.AvgExpense = sumExpense / float64(len(rows))
		h.AvgTxCount = sumCount / float64(len(rows))
	}
	return h
}

// EncodeArtifact serializes the artifact for storage.
func EncodeArtifact(a *Artifact) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(a); err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeArtifact deserializes a stored artifact.
func DecodeArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &a, nil
}

// PersistModel writes the artifact to the store under its user ID.
func PersistModel(ctx context.Context, store artifacts.Store, a *Artifact) error {
	log := logger.FromContext(ctx)

	data, err := EncodeArtifact(a)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, a.UserID, data); err != nil {
		return fmt.Errorf("persist model for %s: %w", a.UserID, err)
	}

	log.Info().
		Str("user_id", a.UserID).
		Str("model", a.CandidateName).
		Int("bytes", len(data)).
		Msg("model artifact saved")
	return nil
}

// LoadArtifact reads and decodes a user's artifact. A missing artifact
// surfaces as artifacts.NotFoundError.
func LoadArtifact(ctx context.Context, store artifacts.Store, userID string) (*Artifact, error) {
	data, err := store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	a, err := DecodeArtifact(data)
	if err != nil {
		return nil, fmt.Errorf("load artifact for %s: %w", userID, err)
	}
	return a, nil
}
