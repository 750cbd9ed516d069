package database

import (
	"fmt"
	"sort"
	"time"

	"archview/internal/archive"
)

// timestampLayout is how document timestamps are stored: wall-clock time
// without a zone. Parsed values are in UTC so bucketing is zone independent.
const timestampLayout = "2006-01-02 15:04:05"

func formatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

// bucket is one time bucket at one level.
type bucket struct {
	level      archive.Table
	y, m, d, h int
	start      time.Time
}

func newBucket(level archive.Table, t time.Time) bucket {
	b := bucket{level: level, y: t.Year()}
	switch level {
	case archive.TableYear:
		b.start = time.Date(b.y, 1, 1, 0, 0, 0, 0, time.UTC)
	case archive.TableMonth:
		b.m = int(t.Month())
		b.start = time.Date(b.y, t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case archive.TableDay:
		b.m, b.d = int(t.Month()), t.Day()
		b.start = time.Date(b.y, t.Month(), b.d, 0, 0, 0, 0, time.UTC)
	case archive.TableHour:
		b.m, b.d, b.h = int(t.Month()), t.Day(), t.Hour()
		b.start = time.Date(b.y, t.Month(), b.d, b.h, 0, 0, 0, time.UTC)
	}
	return b
}

func (b bucket) id() string {
	return archive.BucketID(b.level, b.y, b.m, b.d, b.h)
}

// parent returns the enclosing bucket. YEAR buckets have none.
func (b bucket) parent() (bucket, bool) {
	switch b.level {
	case archive.TableMonth:
		return newBucket(archive.TableYear, b.start), true
	case archive.TableDay:
		return newBucket(archive.TableMonth, b.start), true
	case archive.TableHour:
		return newBucket(archive.TableDay, b.start), true
	}
	return bucket{}, false
}

// key is the sum of the bucket's own date components.
func (b bucket) key() int {
	return b.y + b.m + b.d + b.h
}

func (b bucket) name() string {
	switch b.level {
	case archive.TableMonth:
		return fmt.Sprintf("%04d-%02d", b.y, b.m)
	case archive.TableDay:
		return fmt.Sprintf("%04d-%02d-%02d", b.y, b.m, b.d)
	case archive.TableHour:
		return fmt.Sprintf("%02d:00", b.h)
	default:
		return fmt.Sprintf("%04d", b.y)
	}
}

var bucketLevels = []archive.Table{archive.TableYear, archive.TableMonth, archive.TableDay, archive.TableHour}

// deriveNodes builds the bucket rows for a document listing. Ranks are
// chronological among siblings, starting at 1. DiaRes is set on days holding
// more documents than the day before and HourRes on hours holding more than
// the hour before.
func deriveNodes(docs []archive.DocumentRow, levelImages map[archive.Table]int) []archive.NodeRow {
	dayCounts := make(map[time.Time]int)
	hourCounts := make(map[time.Time]int)
	for _, doc := range docs {
		dayCounts[newBucket(archive.TableDay, doc.Timestamp).start]++
		hourCounts[newBucket(archive.TableHour, doc.Timestamp).start]++
	}

	var rows []archive.NodeRow
	for _, level := range bucketLevels {
		seen := make(map[string]bool)
		var buckets []bucket
		for _, doc := range docs {
			b := newBucket(level, doc.Timestamp)
			if seen[b.id()] {
				continue
			}
			seen[b.id()] = true
			buckets = append(buckets, b)
		}
		sort.Slice(buckets, func(i, j int) bool { return buckets[i].start.Before(buckets[j].start) })

		ranks := make(map[string]int)
		for _, b := range buckets {
			row := archive.NodeRow{
				Table:    level,
				Key:      b.key(),
				Name:     b.name(),
				ImageID:  levelImages[level],
				ID:       b.id(),
				ParentID: archive.RootID,
			}
			if p, ok := b.parent(); ok {
				row.ParentID = p.id()
				row.Owner = p.key()
			}
			ranks[row.ParentID]++
			row.Rank = ranks[row.ParentID]

			switch level {
			case archive.TableDay:
				if dayCounts[b.start] > dayCounts[b.start.AddDate(0, 0, -1)] {
					row.DiaRes = 1
				}
			case archive.TableHour:
				if hourCounts[b.start] > hourCounts[b.start.Add(-time.Hour)] {
					row.HourRes = 1
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// markNew sets IsNew on documents whose designation does not occur on the
// previous calendar day.
func markNew(docs []archive.DocumentRow) {
	byDay := make(map[time.Time]map[string]bool)
	for _, doc := range docs {
		day := newBucket(archive.TableDay, doc.Timestamp).start
		if byDay[day] == nil {
			byDay[day] = make(map[string]bool)
		}
		byDay[day][doc.Designation] = true
	}

	for i := range docs {
		day := newBucket(archive.TableDay, docs[i].Timestamp).start
		if byDay[day.AddDate(0, 0, -1)][docs[i].Designation] {
			docs[i].IsNew = 0
		} else {
			docs[i].IsNew = 1
		}
	}
}
