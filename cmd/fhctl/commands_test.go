package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finhealth/internal/engine"
	"finhealth/internal/model"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name string, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestInitThenValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")

	out, err := run(t, "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	_, err = run(t, "init", path)
	assert.ErrorContains(t, err, "already exists")

	out, err = run(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok (version "+engine.NewSnapshot(engine.DefaultCatalog()).Version()+")")
	assert.Contains(t, out, "questions")
}

func TestValidateListsProblems(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("questions:\n  - id: q1\n    number: 1\n    factor: luck\n    weight: 100\n"), 0o644))

	out, err := run(t, "validate", path)
	require.Error(t, err)
	assert.Contains(t, out, `unknown pillar "luck"`)
}

func TestAssembleAndScore(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.yaml")
	_, err := run(t, "init", catalogPath)
	require.NoError(t, err)

	profile := writeFile(t, dir, "profile.json", model.RespondentProfile{HasChildren: true})
	out, err := run(t, "assemble", "-c", catalogPath, "-p", profile, "--lang", "ar")
	require.NoError(t, err)
	var set model.QuestionSet
	require.NoError(t, json.Unmarshal([]byte(out), &set))
	assert.Len(t, set.Questions, 16)
	assert.Equal(t, 80, set.MaxPossibleScore)
	assert.Equal(t, model.LanguageArabic, set.Language)

	snap := engine.NewSnapshot(engine.DefaultCatalog())
	full, err := snap.Assemble(model.RespondentProfile{}, model.LanguageEnglish, "")
	require.NoError(t, err)

	good := model.SurveyResponse{ID: "r-good"}
	for _, q := range full.Questions {
		good.Answers = append(good.Answers, model.Answer{QuestionID: q.ID, Value: 5})
	}
	partial := model.SurveyResponse{ID: "r-partial", Answers: good.Answers[:3]}

	goodPath := writeFile(t, dir, "good.json", good)
	partialPath := writeFile(t, dir, "partial.json", partial)

	out, err = run(t, "score", "-c", catalogPath, goodPath, partialPath)
	assert.ErrorContains(t, err, "1 of 2")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3) // two results plus the error line
	var first, second scoreOutput
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	require.NotNil(t, first.Score)
	assert.Equal(t, 75.0, first.Score.TotalScore)
	assert.Equal(t, "r-good", first.Score.ResponseID)
	assert.Contains(t, second.Error, "incomplete response")
}
