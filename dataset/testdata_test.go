package dataset

import (
	"fmt"
	"strings"
)

// sampleCSV renders n rows in the bank-additional layout. Every fifth row
// is a positive outcome; pdays cycles through a handful of values with one
// rare value at the end so the join repair has something to move.
func sampleCSV(n int) string {
	var b strings.Builder
	b.WriteString(`"age";"job";"marital";"education";"default";"housing";"loan";"contact";"month";"day_of_week";"duration";"campaign";"pdays";"previous";"poutcome";"emp.var.rate";"cons.price.idx";"cons.conf.idx";"euribor3m";"nr.employed";"y"` + "\n")
	jobs := []string{"admin.", "services", "technician", "blue-collar"}
	days := []string{"mon", "tue", "wed", "thu", "fri"}
	for i := 0; i < n; i++ {
		y := "no"
		if i%5 == 0 {
			y = "yes"
		}
		pdays := 999
		if i%7 == 0 {
			pdays = 6
		}
		if i == n-1 {
			pdays = 42
		}
		fmt.Fprintf(&b, "%d;%q;%q;%q;%q;%q;%q;%q;%q;%q;%d;%d;%d;%d;%q;%.1f;%.3f;%.1f;%.3f;%.1f;%q\n",
			20+i%50, jobs[i%len(jobs)], "married", "university.degree", "no", "yes", "no",
			"cellular", "may", days[i%len(days)], 100+i, 1+i%3, pdays, i%2, "nonexistent",
			1.1, 93.994, -36.4, 4.857, 5191.0, y)
	}
	return b.String()
}
