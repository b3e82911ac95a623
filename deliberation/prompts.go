package deliberation

import "github.com/zacbakerr/werewolf/internal/util"

const preamble = `You are {{.Self}}, {{if .Role}}playing as a {{.Role}} in{{else}}a player in{{end}} a game of werewolf.

{{.Guidance}}

Current game situation (including your past thoughts and actions):
{{.Situation}}`

var (
	thoughtTmpl = util.MustTemplate("thought", preamble+`

Think through your response step by step:
{{.Questions}}`)

	draftTmpl = util.MustTemplate("draft", preamble+`

Your thoughts:
{{.Thought}}

Based on your thoughts and the current situation, what is your {{.Action.Label}}? Respond with only the {{.Action.Label}} and nothing else. {{.Action.Format}}{{if .Constraints}}
{{.Constraints}}{{end}}`)

	reflectionTmpl = util.MustTemplate("reflection", preamble+`

Your thoughts:
{{.Thought}}

Your initial {{.Action.Label}}:
{{.Draft}}

Criticize your initial action by answering these questions:
1. Does the action fit my name and my role?
2. Am I revealing too much about myself in a public channel?
3. Does the action work against my objective in the game?
4. How can I improve the action so it helps my team and keeps me alive?`)

	finalTmpl = util.MustTemplate("final", preamble+`

Your thoughts:
{{.Thought}}

Your initial {{.Action.Label}}:
{{.Draft}}

Your reflection:
{{.Reflection}}

Taking your reflection into account, what is your final {{.Action.Label}}? Respond with only the {{.Action.Label}} and nothing else. {{.Action.Format}}{{if .Constraints}}
{{.Constraints}}{{end}}`)
)
