package model

import "go.uber.org/zap"

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
// The name also labels the model's GPU buffers.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithLogger is an option builder that sets the logger used for model diagnostics.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - ModelBuilderOption: a function that applies the logger option to a model
func WithLogger(l *zap.Logger) ModelBuilderOption {
	return func(m *model) {
		m.logger = l
	}
}
