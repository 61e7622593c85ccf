package analyzer

import "fmt"

type dimension struct {
	name  string
	focus string
	scale string
}

var dimensions = [4]dimension{
	{
		name:  "security",
		focus: "smart contract safety, the consensus mechanism, known or likely vulnerabilities and the team's security practices",
		scale: "Give a rating from 0 to 10 and justify it.",
	},
	{
		name:  "growth potential",
		focus: "the addressable market, the adoption plan, competitive edge and how the ecosystem is being built out",
		scale: "Give a rating from 0 to 10 and justify it.",
	},
	{
		name:  "investment risk",
		focus: "regulatory exposure, competition, technical hurdles and weaknesses in the token economics",
		scale: "Give a rating from 0 to 10, where 10 means the lowest risk, and justify it.",
	},
	{
		name:  "technology",
		focus: "what is new in the design, how it improves on existing systems, whether it is feasible and its likely impact",
		scale: "Give a rating from 0 to 10 and justify it.",
	},
}

func dimensionPrompt(d dimension, project, text string) string {
	return fmt.Sprintf("Assess the %s of the %s crypto project using the material below.\n\n%s\n\n"+
		"Consider %s. %s", d.name, project, text, d.focus, d.scale)
}

func summaryPrompt(project string, parts [4]string) string {
	return fmt.Sprintf("Here are four assessments of the %s crypto project.\n\n"+
		"Security:\n%s\n\nGrowth potential:\n%s\n\nInvestment risk:\n%s\n\nTechnology:\n%s\n\n"+
		"Write a short overall outlook naming the main strengths and concerns, "+
		"and finish with a one-line verdict on whether the project looks promising.",
		project, parts[0], parts[1], parts[2], parts[3])
}

func nameOnlyText(project string) string {
	return fmt.Sprintf("No whitepaper was supplied for %s. Base the assessment on what is publicly known about the project.", project)
}
