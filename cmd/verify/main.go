// Command verify checks a catalog document before it is deployed and can
// publish it to R2 for servers started with CATALOG_R2_KEY.
//
// Usage:
//
//	verify [-publish key] [path]
//
// Without a path the embedded default catalog is checked.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/genocem/Edumond-AI-portal/internal/catalog"
	"github.com/genocem/Edumond-AI-portal/internal/config"
	"github.com/genocem/Edumond-AI-portal/internal/conversation"
	"github.com/genocem/Edumond-AI-portal/internal/data"
	"github.com/genocem/Edumond-AI-portal/internal/matcher"
	"github.com/genocem/Edumond-AI-portal/internal/r2client"
)

var publishFlag = flag.String("publish", "", "R2 object key to upload the document to after a clean verification")

// Verification results
type verifyResult struct {
	name    string
	passed  bool
	message string
}

func main() {
	flag.Parse()

	fmt.Println("🔍 Edumond catalog verification")
	fmt.Println("===============================")

	path := flag.Arg(0)
	document := data.CoursesJSON
	var (
		cat *catalog.Catalog
		err error
	)
	if path == "" {
		fmt.Println("Source: embedded default catalog")
		cat, err = data.DefaultCatalog()
	} else {
		fmt.Printf("Source: %s\n", path)
		document, err = os.ReadFile(path)
		if err == nil {
			cat, err = catalog.LoadFile(path)
		}
	}
	if err != nil {
		fmt.Printf("❌ Catalog failed to load:\n%v\n", err)
		os.Exit(1)
	}

	results := verifyCatalog(cat)

	fmt.Println("\n📊 Verification Results:")
	fmt.Println("========================")

	failed := 0
	for _, result := range results {
		status := "✅"
		if !result.passed {
			status = "❌"
			failed++
		}
		fmt.Printf("%s %s: %s\n", status, result.name, result.message)
	}
	fmt.Printf("\n📈 Summary: %d passed, %d failed\n", len(results)-failed, failed)

	if failed > 0 {
		os.Exit(1)
	}

	if *publishFlag != "" {
		if err := publish(*publishFlag, document); err != nil {
			fmt.Printf("❌ Publish failed: %v\n", err)
			os.Exit(1)
		}
	}
}

// verifyCatalog runs the content checks that load-time validation does not cover.
func verifyCatalog(cat *catalog.Catalog) []verifyResult {
	var results []verifyResult
	results = append(results, verifyCategories(cat)...)
	results = append(results, verifyLevels(cat)...)
	results = append(results, verifyCountries(cat)...)
	results = append(results, verifyMatching(cat)...)
	return results
}

// verifyCategories checks every category has at least one course.
func verifyCategories(cat *catalog.Catalog) []verifyResult {
	results := make([]verifyResult, 0, len(catalog.Categories))
	for _, category := range catalog.Categories {
		n := len(cat.ByCategory(category))
		results = append(results, verifyResult{
			name:    "Category " + string(category),
			passed:  n > 0,
			message: fmt.Sprintf("%d courses", n),
		})
	}
	return results
}

// verifyLevels checks every level token is on the CEFR or coarse scale.
func verifyLevels(cat *catalog.Catalog) []verifyResult {
	var unknown []string
	for _, course := range cat.All() {
		for _, level := range course.Levels {
			if !catalog.ParseLevel(level).IsKnown() {
				unknown = append(unknown, fmt.Sprintf("%s:%q", course.ID, level))
			}
		}
	}
	result := verifyResult{name: "Level tokens", passed: len(unknown) == 0, message: "all recognized"}
	if len(unknown) > 0 {
		result.message = "unrecognized " + strings.Join(unknown, ", ")
	}
	return []verifyResult{result}
}

// verifyCountries checks country codes are lowercase and each destination
// has a language course, so a student who picks it can be matched on
// their native-language level.
func verifyCountries(cat *catalog.Catalog) []verifyResult {
	var results []verifyResult
	for _, country := range cat.Countries() {
		if country != strings.ToLower(strings.TrimSpace(country)) {
			results = append(results, verifyResult{
				name:    "Country " + country,
				passed:  false,
				message: "country codes must be lowercase without spaces",
			})
			continue
		}
		hasLanguage := slices.ContainsFunc(cat.ByCountry(country), func(c catalog.Course) bool {
			return c.Category == catalog.CategoryLanguage
		})
		results = append(results, verifyResult{
			name:    "Country " + country,
			passed:  hasLanguage,
			message: fmt.Sprintf("%d courses, language course present: %t", len(cat.ByCountry(country)), hasLanguage),
		})
	}
	if len(results) == 0 {
		results = append(results, verifyResult{name: "Countries", passed: false, message: "catalog offers no country"})
	}
	return results
}

// verifyMatching runs the default matcher for every goal and country and
// checks each pairing yields at least one recommendation.
func verifyMatching(cat *catalog.Catalog) []verifyResult {
	var results []verifyResult
	for _, goal := range catalog.Goals {
		var empty []string
		for _, country := range cat.Countries() {
			profile := conversation.Profile{Goal: goal, Country: country, EnglishLevel: "B1", NativeLevel: "A2"}
			if len(matcher.Match(profile.MatcherProfile(), cat.All())) == 0 {
				empty = append(empty, country)
			}
		}
		result := verifyResult{name: "Matching goal " + string(goal), passed: len(empty) == 0, message: "every country matched"}
		if len(empty) > 0 {
			result.message = "no recommendations for " + strings.Join(empty, ", ")
		}
		results = append(results, result)
	}
	return results
}

// publish uploads the verified document with the R2 settings from the environment.
func publish(key string, document []byte) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := r2client.New(ctx, cfg.R2Config())
	if err != nil {
		return err
	}
	etag, err := client.PublishCatalog(ctx, key, document)
	if err != nil {
		return err
	}
	fmt.Printf("🚀 Published %s (etag %s)\n", key, etag)
	return nil
}
