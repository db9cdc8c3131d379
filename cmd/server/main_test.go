package main

import (
	"context"
	"path/filepath"
	"testing"

	"iris-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagName(t *testing.T) {
	assert.Equal(t, "sepal-length", flagName(models.ParamSepalLength))
	assert.Equal(t, "petal-width", flagName(models.ParamPetalWidth))
}

func TestNewApp_Commands(t *testing.T) {
	app := newApp()

	names := make([]string, 0, len(app.Commands))
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{"serve", "predict", "info"}, names)
}

func TestPredictCommand_RejectsInvalidSample(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yml")

	err := newApp().Run(context.Background(), []string{
		"iris-api", "--config", missing, "predict",
		"--sepal-length", "abc",
		"--sepal-width", "3.5",
		"--petal-length", "1.4",
		"--petal-width", "0.2",
	})
	require.Error(t, err)
	assert.Equal(t, models.InvalidParamsMessage, err.Error())
}

func TestPredictCommand_Succeeds(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yml")

	err := newApp().Run(context.Background(), []string{
		"iris-api", "--config", missing, "--log-level", "error", "predict",
		"--sepal-length", "5.1",
		"--sepal-width", "3.5",
		"--petal-length", "1.4",
		"--petal-width", "0.2",
	})
	assert.NoError(t, err)
}
