// Package web serves the single-operator prediction form.
package web

import (
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/YuminosukeSato/calorieburn/internal/features"
	"github.com/YuminosukeSato/calorieburn/internal/predictor"
	"github.com/YuminosukeSato/calorieburn/pkg/errors"
	"github.com/YuminosukeSato/calorieburn/pkg/log"
)

//go:embed templates
var templateFS embed.FS

// Server holds the handlers' shared, read-only state.
type Server struct {
	pred           *predictor.Predictor
	catalog        features.Catalog
	workoutOptions []string
	logger         log.Logger
}

// NewServer builds a Server. workoutOptions are the workout types the
// artifact was trained on.
func NewServer(pred *predictor.Predictor, catalog features.Catalog, workoutOptions []string) *Server {
	return &Server{
		pred:           pred,
		catalog:        catalog,
		workoutOptions: workoutOptions,
		logger:         log.GetLoggerWithName("web"),
	}
}

// FormRequest is the posted form. Numeric fields are kept as strings so that
// unparsable values become a validation message instead of a bind failure.
type FormRequest struct {
	Gender    string `form:"gender"`
	Age       string `form:"age"`
	Height    string `form:"height"`
	Weight    string `form:"weight"`
	Category  string `form:"category"`
	Selection string `form:"selection"`
	Custom    string `form:"custom"`
	Duration  string `form:"duration"`
	HeartRate string `form:"heart_rate"`
	BodyTemp  string `form:"body_temp"`
}

// APIRequest is the JSON body of /api/predict. Workout, when set, is used
// as is; otherwise it is resolved from the catalog fields like the form.
type APIRequest struct {
	Gender    string   `json:"gender"`
	Age       *float64 `json:"age"`
	Height    *float64 `json:"height"`
	Weight    *float64 `json:"weight"`
	Workout   string   `json:"workout"`
	Category  string   `json:"category"`
	Selection string   `json:"selection"`
	Custom    string   `json:"custom"`
	Duration  *float64 `json:"duration"`
	HeartRate *float64 `json:"heart_rate"`
	BodyTemp  *float64 `json:"body_temp"`
}

type pageData struct {
	Bounds     features.Bounds
	Catalog    features.Catalog
	Categories []string
	NotListed  string
	Form       FormRequest
	Estimate   *predictor.Estimate
	Error      string
}

// Router returns the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	r.GET("/", s.IndexHandler)
	r.POST("/predict", s.PredictHandler)
	r.GET("/api/workouts", s.WorkoutsHandler)
	r.POST("/api/predict", s.APIPredictHandler)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"http.method", c.Request.Method,
			"http.path", c.FullPath(),
			"http.status", c.Writer.Status(),
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	}
}

func (s *Server) defaultForm() FormRequest {
	in := s.pred.Bounds().DefaultInput()
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	form := FormRequest{
		Gender:    in.Gender,
		Age:       f(in.Age),
		Height:    f(in.Height),
		Weight:    f(in.Weight),
		Duration:  f(in.Duration),
		HeartRate: f(in.HeartRate),
		BodyTemp:  f(in.BodyTemp),
	}
	if len(s.catalog) > 0 {
		form.Category = s.catalog[0].Name
		if len(s.catalog[0].Exercises) > 0 {
			form.Selection = s.catalog[0].Exercises[0]
		}
	}
	return form
}

func (s *Server) page(form FormRequest) pageData {
	return pageData{
		Bounds:     s.pred.Bounds(),
		Catalog:    s.catalog,
		Categories: s.catalog.CategoryNames(),
		NotListed:  features.NotListed,
		Form:       form,
	}
}

// IndexHandler renders the empty form with default values.
func (s *Server) IndexHandler(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", s.page(s.defaultForm()))
}

// PredictHandler validates the posted form, predicts and re-renders the page
// with either the result or the validation message.
func (s *Server) PredictHandler(c *gin.Context) {
	var form FormRequest
	if err := c.ShouldBind(&form); err != nil {
		data := s.page(s.defaultForm())
		data.Error = "Could not read the form."
		c.HTML(http.StatusBadRequest, "index.html", data)
		return
	}

	data := s.page(form)
	est, err := s.estimate(form)
	if err != nil {
		status, msg := s.describe(err)
		data.Error = msg
		c.HTML(status, "index.html", data)
		return
	}
	data.Estimate = &est
	c.HTML(http.StatusOK, "index.html", data)
}

// PredictResponse is the JSON body of /api/predict.
type PredictResponse struct {
	Calories      float64 `json:"calories"`
	FatLossGrams  float64 `json:"fat_loss_g"`
	BMI           float64 `json:"bmi"`
	KnownWorkout  bool    `json:"known_workout"`
	CaloriesText  string  `json:"calories_text"`
	FatLossText   string  `json:"fat_loss_text"`
	Encouragement string  `json:"encouragement,omitempty"`
}

// APIPredictHandler is the JSON variant of PredictHandler.
func (s *Server) APIPredictHandler(c *gin.Context) {
	var req APIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed JSON body"})
		return
	}
	est, err := s.estimateAPI(req)
	if err != nil {
		status, msg := s.describe(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, PredictResponse{
		Calories:      est.Calories,
		FatLossGrams:  est.FatLossGrams,
		BMI:           est.BMI,
		KnownWorkout:  est.KnownWorkout,
		CaloriesText:  est.CaloriesText(),
		FatLossText:   est.FatLossText(),
		Encouragement: est.Encouragement(),
	})
}

// WorkoutsHandler returns the trained workout options and the form catalog.
func (s *Server) WorkoutsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"workout_options": s.workoutOptions,
		"categories":      s.catalog,
	})
}

func (s *Server) estimateAPI(req APIRequest) (predictor.Estimate, error) {
	in, err := req.toInput(s.catalog)
	if err != nil {
		return predictor.Estimate{}, err
	}
	return s.pred.Predict(in)
}

func (s *Server) estimate(form FormRequest) (predictor.Estimate, error) {
	in, err := s.toInput(form)
	if err != nil {
		return predictor.Estimate{}, err
	}
	return s.pred.Predict(in)
}

func (s *Server) toInput(form FormRequest) (features.Input, error) {
	workout, err := s.catalog.ResolveWorkout(form.Category, form.Selection, form.Custom)
	if err != nil {
		return features.Input{}, err
	}
	in := features.Input{Gender: form.Gender, WorkoutName: workout}

	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{features.FieldAge, form.Age, &in.Age},
		{features.FieldHeight, form.Height, &in.Height},
		{features.FieldWeight, form.Weight, &in.Weight},
		{features.FieldDuration, form.Duration, &in.Duration},
		{features.FieldHeartRate, form.HeartRate, &in.HeartRate},
		{features.FieldBodyTemp, form.BodyTemp, &in.BodyTemp},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f.raw), 64)
		if err != nil {
			return features.Input{}, errors.NewInvalidInputError(f.name, features.Label(f.name)+" must be a number", f.raw)
		}
		*f.dst = v
	}
	return in, nil
}

// toInput maps the JSON body. Missing numbers are reported like unparsable
// form values.
func (r APIRequest) toInput(catalog features.Catalog) (features.Input, error) {
	workout := strings.TrimSpace(r.Workout)
	if workout == "" && r.Category != "" {
		w, err := catalog.ResolveWorkout(r.Category, r.Selection, r.Custom)
		if err != nil {
			return features.Input{}, err
		}
		workout = w
	}
	in := features.Input{Gender: r.Gender, WorkoutName: workout}

	fields := []struct {
		name string
		src  *float64
		dst  *float64
	}{
		{features.FieldAge, r.Age, &in.Age},
		{features.FieldHeight, r.Height, &in.Height},
		{features.FieldWeight, r.Weight, &in.Weight},
		{features.FieldDuration, r.Duration, &in.Duration},
		{features.FieldHeartRate, r.HeartRate, &in.HeartRate},
		{features.FieldBodyTemp, r.BodyTemp, &in.BodyTemp},
	}
	for _, f := range fields {
		if f.src == nil {
			return features.Input{}, errors.NewInvalidInputError(f.name, features.Label(f.name)+" is required", nil)
		}
		*f.dst = *f.src
	}
	return in, nil
}

// describe maps an error to a status code and a user-facing message.
func (s *Server) describe(err error) (int, string) {
	var iie *errors.InvalidInputError
	if errors.As(err, &iie) {
		return http.StatusUnprocessableEntity, iie.Reason
	}
	s.logger.Error("prediction failed", err, log.ErrorCodeKey, "PREDICT")
	return http.StatusInternalServerError, "Prediction failed. See the server log for details."
}
