package agent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"silverland-assistant/internal/model"
	"silverland-assistant/internal/repository"
)

// projectDetail resolves which project the user means and replies with its
// full details. When the catalog record is gone, web search fills in; when
// that also fails, a polite apology goes out instead of an error.
func (a *Agent) projectDetail(ctx context.Context, st *model.AgentState) error {
	lastMsg := st.LastUserMessage()

	if st.SelectedProjectID == nil && len(st.CandidateProjects) > 0 {
		sel, err := a.extractor.ExtractSelection(ctx, st.CandidateProjects, lastMsg)
		if err != nil {
			return err
		}
		st.SelectedProjectID = resolveSelection(st.CandidateProjects, sel.ProjectIndex, sel.ProjectName)
	}

	if st.SelectedProjectID == nil {
		if len(st.CandidateProjects) > 0 {
			st.AppendAssistant("Which project do you want details for?\n" +
				shortlistText(st.CandidateProjects, false))
		} else {
			st.AppendAssistant("Which project would you like details about?")
		}
		st.Stage = model.StageDetailNeedSelection
		return nil
	}

	// A selection exists: always attempt the catalog fetch before falling
	// back to web search.
	project, err := a.catalog.GetProjectByID(ctx, *st.SelectedProjectID)
	if err != nil && !errors.Is(err, repository.ErrProjectNotFound) {
		return fmt.Errorf("project detail: %w", err)
	}

	if project == nil {
		a.detailFromWeb(ctx, st)
		return nil
	}

	st.AppendAssistant(formatProjectDetails(project))
	st.Stage = model.StageDetailComplete
	return nil
}

// detailFromWeb handles a stale selection: the shortlist snapshot still
// carries the project name and city, so web search can offer something
// before giving up.
func (a *Agent) detailFromWeb(ctx context.Context, st *model.AgentState) {
	var name, city string
	for _, p := range st.CandidateProjects {
		if p.ID == *st.SelectedProjectID {
			name, city = p.Name, p.City
			break
		}
	}

	var summary string
	if name != "" {
		summary = a.searcher.SearchProjectInfo(ctx, name, city)
	}

	if summary != "" {
		st.AppendAssistant(fmt.Sprintf(
			"I couldn't find structured details for this project in my database, "+
				"but here's what I found from external sources about **%s**:\n\n%s",
			name, summary))
		st.Stage = model.StageDetailFromWeb
		return
	}

	st.AppendAssistant(
		"I'm unable to find that project's details in my data or through external search. " +
			"Could you try a different project or ask for general buying guidance?")
	st.Stage = model.StageDetailError
}

// formatProjectDetails renders the multi-field detail message, omitting
// fields the catalog left empty.
func formatProjectDetails(p *model.Project) string {
	lines := []string{
		fmt.Sprintf("**%s** - Full Details:", p.Name),
		"",
		fmt.Sprintf("**Location:** %s, %s", p.City, p.Country),
	}

	if p.DeveloperName != "" {
		lines = append(lines, fmt.Sprintf("**Developer:** %s", p.DeveloperName))
	}
	if p.Bedrooms != nil {
		lines = append(lines, fmt.Sprintf("**Bedrooms:** %d", *p.Bedrooms))
	}
	if p.Bathrooms != nil {
		lines = append(lines, fmt.Sprintf("**Bathrooms:** %d", *p.Bathrooms))
	}
	if p.PropertyType != "" {
		lines = append(lines, fmt.Sprintf("**Property Type:** %s", p.PropertyType))
	}
	if p.AreaSqm != nil {
		lines = append(lines, fmt.Sprintf("**Area:** %s sq. m.",
			strconv.FormatFloat(*p.AreaSqm, 'f', -1, 64)))
	}
	if p.PriceUSD != nil && *p.PriceUSD != 0 {
		lines = append(lines, fmt.Sprintf("**Price:** %s", formatPriceUSD(p.PriceUSD)))
	}
	if p.CompletionStatus != "" {
		lines = append(lines, fmt.Sprintf("**Completion Status:** %s", p.CompletionStatus))
	}
	if p.CompletionDate != nil {
		lines = append(lines, fmt.Sprintf("**Completion Date:** %s",
			p.CompletionDate.Format("2006-01-02")))
	}
	if p.Features != "" {
		lines = append(lines, "", fmt.Sprintf("**Features:**\n%s", p.Features))
	}
	if p.Facilities != "" {
		lines = append(lines, "", fmt.Sprintf("**Facilities:**\n%s", p.Facilities))
	}
	if p.Description != "" {
		lines = append(lines, "", fmt.Sprintf("**Description:**\n%s", p.Description))
	}

	kept := make([]string, 0, len(lines))
	for i, line := range lines {
		// collapse doubled blank separators from omitted sections
		if line == "" && i > 0 && len(kept) > 0 && kept[len(kept)-1] == "" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
