package log

// Model and operation context.
const (
	// ModelNameKey identifies the type of estimator.
	// Examples: "RandomForestRegressor", "StandardScaler", "OneHotEncoder"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "fit_transform", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component is logging.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"

	// ArtifactPathKey is the path of the serialized pipeline bundle.
	ArtifactPathKey = "artifact.path"

	// RunIDKey identifies one training run and the artifact it produced.
	RunIDKey = "artifact.run_id"
)

// Data shape.
const (
	// SamplesKey indicates the number of samples (rows).
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns).
	FeaturesKey = "data.features"

	// TrainSamplesKey and TestSamplesKey describe the train/test partition sizes.
	TrainSamplesKey = "data.train_samples"
	TestSamplesKey  = "data.test_samples"

	// CategoriesKey records the number of categories learned by an encoder.
	CategoriesKey = "data.categories"
)

// Performance and quality metrics.
const (
	DurationMsKey = "perf.duration_ms"
	R2ScoreKey    = "metrics.r2_score"
	MAEKey        = "metrics.mae"
	RMSEKey       = "metrics.rmse"
)

// Hyperparameters and configuration.
const (
	NEstimatorsKey = "hyperparams.n_estimators"
	ParamsKey      = "hyperparams.all"
	RandomSeedKey  = "config.random_seed"
	TestSizeKey    = "config.test_size"
)

// Prediction context.
const (
	CaloriesKey     = "preds.calories"
	FatLossKey      = "preds.fat_loss_g"
	WorkoutKey      = "input.workout"
	KnownWorkoutKey = "input.known_workout"
	CacheHitKey     = "preds.cache_hit"
)

// Error context.
const (
	ErrorCodeKey  = "error.code"
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"
	OperationLoad         = "load"
	OperationSave         = "save"
	OperationSplit        = "split"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"

	ErrorNotFitted     = "NOT_FITTED"
	ErrorInvalidInput  = "INVALID_INPUT"
	ErrorArtifactLoad  = "ARTIFACT_LOAD"
	ErrorDatasetLoad   = "DATASET_LOAD"
	ErrorUnknownColumn = "UNKNOWN_COLUMN"
)
