/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/eslsoft/explorespeak/internal/entity"
	"github.com/eslsoft/explorespeak/internal/infrastructure/config"
	"github.com/eslsoft/explorespeak/internal/infrastructure/database"
)

// dbInitCmd applies the database schema and optionally seeds the quest catalog.
var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "Initialize database schema and seed the quest catalog",
	Long:  "Applies schema migrations and loads quests from a catalog file or URL. Use --schema-only to skip seeding.",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		url, _ := cmd.Flags().GetString("url")
		schemaOnly, _ := cmd.Flags().GetBool("schema-only")
		cacheDir, _ := cmd.Flags().GetString("cache-dir")
		noCache, _ := cmd.Flags().GetBool("no-cache")

		if err := runMigrations(cmd.Context()); err != nil {
			return err
		}
		if schemaOnly {
			return nil
		}
		if file == "" && url == "" {
			return fmt.Errorf("either --file or --url is required unless --schema-only is set")
		}
		return seedQuests(cmd.Context(), file, url, cacheDir, noCache)
	},
}

func init() {
	rootCmd.AddCommand(dbInitCmd)
	dbInitCmd.Flags().String("file", "", "local quest catalog JSON file")
	dbInitCmd.Flags().String("url", "", "quest catalog download URL")
	dbInitCmd.Flags().Bool("schema-only", false, "apply schema migrations without seeding quests")
	dbInitCmd.Flags().String("cache-dir", "", "catalog cache directory (default: user cache dir/explorespeak)")
	dbInitCmd.Flags().Bool("no-cache", false, "ignore local cache and force a fresh download")
}

func runMigrations(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := database.Migrate(migrateCtx, pool); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	log.Println("schema migration complete")
	return nil
}

// questRecord is the catalog wire format.
type questRecord struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Language           string   `json:"language"`
	Level              string   `json:"level"`
	CulturalContext    string   `json:"cultural_context"`
	LearningObjectives []string `json:"learning_objectives"`
	EstimatedMinutes   int32    `json:"estimated_minutes"`
}

func seedQuests(ctx context.Context, file, url, cacheDirFlag string, noCache bool) error {
	start := time.Now()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	catalogPath := file
	if catalogPath == "" {
		cacheDir, cachedPath, fromCache, err := prepareCachePath(url, cacheDirFlag, noCache)
		if err != nil {
			return err
		}
		if !fromCache {
			if err := os.MkdirAll(cacheDir, 0o755); err != nil {
				return fmt.Errorf("create cache dir: %w", err)
			}
			log.Printf("downloading quest catalog to cache: %s", cachedPath)
			if err := downloadFile(ctx, url, cachedPath); err != nil {
				return err
			}
		} else {
			log.Printf("using cached catalog: %s", cachedPath)
		}
		catalogPath = cachedPath
	}

	f, err := os.Open(filepath.Clean(catalogPath))
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	quests, err := parseQuestCatalog(f)
	if err != nil {
		return err
	}
	log.Printf("parsed %d quests from catalog", len(quests))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := upsertQuestBatch(ctx, pool, quests); err != nil {
		return err
	}
	log.Printf("seeded %d quests in %s", len(quests), time.Since(start))
	return nil
}

// parseQuestCatalog decodes and validates the catalog JSON.
func parseQuestCatalog(r io.Reader) ([]entity.Quest, error) {
	var records []questRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(records))
	quests := make([]entity.Quest, 0, len(records))
	for i, rec := range records {
		id := strings.TrimSpace(rec.ID)
		if id == "" {
			return nil, fmt.Errorf("catalog entry %d: missing id", i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate id %q", i, id)
		}
		seen[id] = struct{}{}
		if strings.TrimSpace(rec.Title) == "" {
			return nil, fmt.Errorf("quest %s: missing title", id)
		}
		lang := entity.ParseLanguage(rec.Language)
		if lang == entity.LanguageUnspecified {
			return nil, fmt.Errorf("quest %s: unknown language %q", id, rec.Language)
		}

		level := entity.LevelA1
		if rec.Level != "" {
			parsed, ok := entity.ParseCEFRLevel(rec.Level)
			if !ok {
				return nil, fmt.Errorf("quest %s: unknown CEFR level %q", id, rec.Level)
			}
			level = parsed
		}

		objectives := make([]string, 0, len(rec.LearningObjectives))
		for _, obj := range rec.LearningObjectives {
			if obj = strings.TrimSpace(obj); obj != "" {
				objectives = append(objectives, obj)
			}
		}

		quests = append(quests, entity.Quest{
			ID:                 id,
			Title:              strings.TrimSpace(rec.Title),
			Language:           lang,
			Level:              level,
			CulturalContext:    strings.TrimSpace(rec.CulturalContext),
			LearningObjectives: objectives,
			EstimatedMinutes:   rec.EstimatedMinutes,
		})
	}
	return quests, nil
}

func upsertQuestBatch(ctx context.Context, pool *pgxpool.Pool, quests []entity.Quest) error {
	if len(quests) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, q := range quests {
		b.Queue(`INSERT INTO quests (id, title, language, level, cultural_context, learning_objectives, estimated_minutes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title,
				language = EXCLUDED.language,
				level = EXCLUDED.level,
				cultural_context = EXCLUDED.cultural_context,
				learning_objectives = EXCLUDED.learning_objectives,
				estimated_minutes = EXCLUDED.estimated_minutes,
				updated_at = now()`,
			q.ID, q.Title, string(q.Language), string(q.Level), q.CulturalContext, q.LearningObjectives, q.EstimatedMinutes)
	}
	br := pool.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("upsert quest: %w", err)
		}
	}
	return br.Close()
}

func downloadFile(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return err
	}
	return nil
}

// prepareCachePath decides cache location and returns (cacheDir, filePath, fromCache, error)
func prepareCachePath(url, cacheDirFlag string, noCache bool) (string, string, bool, error) {
	var base string
	if cacheDirFlag != "" {
		base = cacheDirFlag
	} else {
		userCache, err := os.UserCacheDir()
		if err != nil {
			return "", "", false, fmt.Errorf("resolve user cache dir: %w", err)
		}
		base = filepath.Join(userCache, "explorespeak")
	}
	// stable filename from URL hash
	h := crc32.ChecksumIEEE([]byte(url))
	name := fmt.Sprintf("quests-%08x.json", h)
	path := filepath.Join(base, name)
	if !noCache {
		if st, err := os.Stat(path); err == nil && st.Size() > 0 {
			return base, path, true, nil
		}
	}
	return base, path, false, nil
}
