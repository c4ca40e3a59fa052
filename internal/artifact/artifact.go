// Package artifact persists the trained pipeline together with the workout
// options and training metadata as a single gob file.
package artifact

import (
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/calorieburn/core/model"
	"github.com/YuminosukeSato/calorieburn/pkg/errors"
	"github.com/YuminosukeSato/calorieburn/pkg/log"
	"github.com/YuminosukeSato/calorieburn/sklearn/pipeline"

	// register the concrete estimator types with gob
	_ "github.com/YuminosukeSato/calorieburn/sklearn/compose"
	_ "github.com/YuminosukeSato/calorieburn/sklearn/ensemble"
)

// Metadata describes the training run that produced a bundle. It is
// informational only and never gates loading.
type Metadata struct {
	RunID         string
	CreatedAt     time.Time
	NTrainSamples int
	NTestSamples  int
	R2            float64
	MAE           float64
	RMSE          float64
	NEstimators   int
	RandomState   int64
	Features      []string
}

// NewMetadata returns metadata stamped with a fresh run id and the current time.
func NewMetadata() Metadata {
	return Metadata{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
}

// Bundle is the trained pipeline artifact.
type Bundle struct {
	Pipeline       *pipeline.Pipeline
	WorkoutOptions []string
	Metadata       Metadata
}

// Save writes b to path atomically.
func Save(path string, b *Bundle) error {
	if b == nil || b.Pipeline == nil || !b.Pipeline.IsFitted() {
		return errors.NewValueError("artifact.Save", "bundle has no fitted pipeline")
	}
	if err := model.SaveModel(b, path); err != nil {
		return errors.Wrapf(err, "save artifact %s", path)
	}

	log.GetLoggerWithName("artifact").Info("artifact saved",
		log.OperationKey, log.OperationSave,
		log.ArtifactPathKey, path,
		log.RunIDKey, b.Metadata.RunID,
	)
	return nil
}

// Load reads a bundle from path. Any failure is reported as an
// ArtifactLoadError.
func Load(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewArtifactLoadError(path, "artifact file not found; run the trainer first", err)
		}
		return nil, errors.NewArtifactLoadError(path, "cannot open artifact", err)
	}
	defer f.Close()

	var b Bundle
	if err := model.LoadModelFromReader(&b, f); err != nil {
		return nil, errors.NewArtifactLoadError(path, "artifact is corrupt or from an incompatible build", err)
	}
	if b.Pipeline == nil || !b.Pipeline.IsFitted() {
		return nil, errors.NewArtifactLoadError(path, "artifact holds no fitted pipeline", nil)
	}

	log.GetLoggerWithName("artifact").Info("artifact loaded",
		log.OperationKey, log.OperationLoad,
		log.ArtifactPathKey, path,
		log.RunIDKey, b.Metadata.RunID,
		log.CategoriesKey, len(b.WorkoutOptions),
	)
	return &b, nil
}
