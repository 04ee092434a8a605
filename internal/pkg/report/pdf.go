package report

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/strogmv/myblog/internal/domain"
)

// Generator generates PDF reports.
type Generator struct {
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// TagUsageReport renders the tag catalogue with the number of posts
// carrying each tag, in the order given.
func (g *Generator) TagUsageReport(usage []domain.TagUsage) ([]byte, error) {
	m := maroto.New()

	m.AddRows(
		row.New(20).Add(
			col.New(12).Add(
				text.New("TAG USAGE REPORT", props.Text{
					Align: align.Center,
					Size:  20,
					Style: fontstyle.Bold,
				}),
			),
		),
		row.New(10).Add(
			col.New(12).Add(
				text.New(fmt.Sprintf("Generated %s, %d tag(s)", g.now().UTC().Format(time.RFC1123), len(usage)), props.Text{
					Align: align.Center,
					Size:  10,
				}),
			),
		),
		row.New(12).Add(
			col.New(8).Add(text.New("Tag", props.Text{Style: fontstyle.Bold, Top: 4})),
			col.New(4).Add(text.New("Posts", props.Text{Style: fontstyle.Bold, Top: 4, Align: align.Right})),
		),
	)

	if len(usage) == 0 {
		m.AddRows(row.New(10).Add(col.New(12).Add(text.New("No tags defined."))))
	}
	for _, u := range usage {
		m.AddRows(
			row.New(8).Add(
				col.New(8).Add(text.New(u.Tag.Name)),
				col.New(4).Add(text.New(fmt.Sprintf("%d", u.Posts), props.Text{Align: align.Right})),
			),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate tag usage report: %w", err)
	}
	return doc.GetBytes(), nil
}
