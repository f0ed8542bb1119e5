package demo

import (
	"src.weft.sh/pkg/eval"
	"src.weft.sh/pkg/gen"
)

var (
	I    = eval.I
	D    = eval.D
	Text = eval.Text
)

// The template of the todo list:
//
//	vstack
//	    text "Todo: " title
//	    if verbose
//	        text "commands: ..."
//	    for item in items
//	        border [done: item.done]
//	            text item.title
//	    @status stats
//
// The help text shows up once verbose is set: a condition that has not held
// yet is tested again in every pass, but one that has held stays selected.
func todoTemplate() []gen.Expression {
	item := I("item")
	return []gen.Expression{
		gen.Elem("vstack", nil,
			gen.Elem("text", Text("Todo: ", I("title"))),
			gen.If(I("verbose"),
				gen.Elem("text", eval.L("commands: "+commandList))),
			gen.For("item", I("items"),
				gen.Elem("border", nil,
					gen.Elem("text", D(item, "title"))).
					WithAttr("done", D(item, "done"))),
			gen.ViewOf("status", I("stats")),
		),
	}
}

// The status view sees only the stats part of the state.
type statusView struct{}

func (statusView) Template() []gen.Expression {
	return []gen.Expression{
		gen.Elem("text", Text(I("done"), " of ", I("total"), " done")),
	}
}

func newViews() *gen.Views {
	views := gen.NewViews()
	views.Register("status", func() (gen.View, error) { return statusView{}, nil })
	return views
}
