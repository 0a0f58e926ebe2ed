package core

import (
	"fmt"
	"time"

	"github.com/rafabd1/LPParser/config"
)

// calendarYear is a leap year, so February always yields its 29th
const calendarYear = 2020

func daysInMonth(month int) int {
	return time.Date(calendarYear, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

/*
   TotalMonths is the number of months to crawl. When the only accepted
   release year is the launch year, months after the launch month cannot
   hold pages yet and are left out.
*/
func TotalMonths(cfg *config.Configuration) int {
	years := cfg.ReleaseDate.Years
	if cfg.ReleaseDate.Enabled && len(years) == 1 && years[0] == cfg.LaunchTime.Year() {
		return int(cfg.LaunchTime.Month())
	}
	return 12
}

// TotalDays sums the days of the crawled months
func TotalDays(cfg *config.Configuration) int {
	total := 0
	for month := 1; month <= TotalMonths(cfg); month++ {
		total += daysInMonth(month)
	}
	return total
}

func offsetValue(cfg *config.Configuration) int {
	if !cfg.Offset.Enabled || cfg.Offset.Value < 1 {
		return 1
	}
	return cfg.Offset.Value
}

// TotalURLs is the number of URLs GenerateURLs returns
func TotalURLs(cfg *config.Configuration) int {
	return len(cfg.Websites) * offsetValue(cfg) * TotalDays(cfg)
}

/*
   GenerateURLs builds every page URL for the configured sites:
   <site>-MM-DD for the first page of a day and <site>-MM-DD-N for
   N up to the offset value. Order is month, day, offset, site.
*/
func GenerateURLs(cfg *config.Configuration) []string {
	urls := make([]string, 0, TotalURLs(cfg))
	offset := offsetValue(cfg)

	for month := 1; month <= TotalMonths(cfg); month++ {
		for day := 1; day <= daysInMonth(month); day++ {
			for n := 1; n <= offset; n++ {
				for _, site := range cfg.Websites {
					if n > 1 {
						urls = append(urls, fmt.Sprintf("%s-%02d-%02d-%d", site, month, day, n))
					} else {
						urls = append(urls, fmt.Sprintf("%s-%02d-%02d", site, month, day))
					}
				}
			}
		}
	}

	return urls
}
