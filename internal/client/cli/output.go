package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/paperhub/internal/client/models"
)

func (a *App) printUser(u *models.User) {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	fmt.Fprintf(a.out, "%s <%s>\n", name, u.Email)
	fmt.Fprintf(a.out, "Level:     %s\n", u.Level)
	fmt.Fprintf(a.out, "Points:    %d\n", u.Points)
	fmt.Fprintf(a.out, "Downloads: %d\n", u.Downloads)
	if u.Bio != "" {
		fmt.Fprintf(a.out, "Bio:       %s\n", u.Bio)
	}
}

func (a *App) printPapers(papers []models.Paper) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSUBJECT\tCOURSE\tYEAR\tEXAM\tCATEGORY\tUPLOADER")
	for _, p := range papers {
		uploader := strings.TrimSpace(p.Uploader.FirstName+" "+p.Uploader.LastName) + " (" + p.Uploader.Level + ")"
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n", p.ID, p.Subject, p.CourseCode, p.ExamYear, p.ExamName, p.Category, uploader)
	}
	_ = tw.Flush()
}
