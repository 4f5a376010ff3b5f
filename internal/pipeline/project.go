package pipeline

import (
	"math"
	"sort"

	"github.com/amishk599/jobmerge/internal/model"
)

// CoerceSalary converts a raw salary to a whole number. Missing, NaN, infinite
// and out-of-range values become nil.
func CoerceSalary(v *float64) *int64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	rounded := math.Round(*v)
	if rounded >= math.MaxInt64 || rounded < math.MinInt64 {
		return nil
	}
	n := int64(rounded)
	return &n
}

// Project maps an enriched record onto the published field set.
func Project(r model.JobRecord) model.OutputRecord {
	skills := r.Skills
	if skills == nil {
		skills = []string{}
	}
	return model.OutputRecord{
		MyID:          r.Identity(),
		Title:         r.Title,
		JobFunction:   r.JobFunction,
		Company:       r.Company,
		Location:      r.LocationCountry,
		SalaryAmount:  CoerceSalary(r.SalaryAmount),
		Skills:        skills,
		Source:        r.Source,
		JobURL:        r.JobURL,
		JobID:         r.JobID,
		PostedDate:    r.PostedDate,
		IsRemote:      r.IsRemote,
		IngestionDate: r.IngestionDate,
	}
}

// SortByPostedDate orders records newest first. Records posted on the same day
// keep their relative order.
func SortByPostedDate(records []model.OutputRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PostedDate.After(records[j].PostedDate)
	})
}
