package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestMatchCommand(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "db.csv")
	queries := filepath.Join(dir, "raw.csv")
	out := filepath.Join(dir, "out.csv")
	auditOut := filepath.Join(dir, "log.csv")
	cfgPath := filepath.Join(dir, "config.yaml")

	writeFile(t, catalog, "식품명,에너지(kcal),나트륨(mg)\n저염 어묵,120,300\n딸기잼,250,10\n")
	writeFile(t, queries, "PRDLST_NM,BSSH_NM\n제품명,업소명\n저염어묵 120g,가나식품\n\n!!!,무효\n자동차 타이어,다라상사\n")
	writeFile(t, cfgPath, fmt.Sprintf(`
catalog:
  path: %q
queries:
  path: %q
output:
  path: %q
  log_path: %q
cache:
  type: none
log:
  level: error
`, catalog, queries, out, auditOut))

	rootCmd.SetArgs([]string{"match", "-c", cfgPath, "--no-progress", "--no-color"})
	require.NoError(t, rootCmd.Execute())

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"\ufeff제품명", "업소명", "_매칭식품명", "_tfidf최고점수", "_매칭이유", "에너지(kcal)", "나트륨(mg)"}, rows[0])
	assert.Equal(t, []string{"저염어묵 120g", "가나식품", "저염 어묵"}, rows[1][:3])
	assert.Equal(t, "120", rows[1][5])
	assert.Equal(t, []string{"자동차 타이어", "다라상사", ""}, rows[2][:3])
	assert.Equal(t, "score_too_low", rows[2][4])

	raw, err := os.ReadFile(auditOut)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "\ufeff"))
}

func TestOverride(t *testing.T) {
	v := "from-config"
	override(&v, "")
	assert.Equal(t, "from-config", v)
	override(&v, "from-flag")
	assert.Equal(t, "from-flag", v)
}

func TestProgressNilSafe(t *testing.T) {
	var p *progress
	assert.NotPanics(t, p.finish)
	assert.NotPanics(t, newProgress("x").finish)
}

func TestProgressConcurrentUpdates(t *testing.T) {
	p := newProgress("adjudicating")

	var wg sync.WaitGroup
	for i := 1; i <= 16; i++ {
		wg.Add(1)
		go func(done int) {
			defer wg.Done()
			p.update(done, 16)
		}(i)
	}
	wg.Wait()
	p.finish()

	assert.NotNil(t, p.bar)
}

func TestMatchCommand_OracleFlagIsValidated(t *testing.T) {
	t.Setenv("NUTRICURATOR_ORACLE_API_KEY", "")
	t.Cleanup(func() { matchFlags.oracle = "" })

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	writeFile(t, cfgPath, fmt.Sprintf(`
catalog:
  path: %q
queries:
  path: %q
log:
  level: error
`, filepath.Join(dir, "db.csv"), filepath.Join(dir, "raw.csv")))

	rootCmd.SetArgs([]string{"match", "-c", cfgPath, "--oracle", "openai", "--no-progress", "--no-color"})
	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}
