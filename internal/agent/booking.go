package agent

import (
	"context"
	"errors"
	"fmt"

	"silverland-assistant/internal/model"
	"silverland-assistant/internal/repository"
)

// handleBooking walks the visit-booking slot machine: project selection,
// then contact details, then lead and booking creation. Each missing slot
// yields one targeted question rather than a form dump.
func (a *Agent) handleBooking(ctx context.Context, st *model.AgentState) error {
	lastMsg := st.LastUserMessage()

	ext, err := a.extractor.ExtractBooking(ctx, st.CandidateProjects, lastMsg)
	if err != nil {
		return err
	}

	// An earlier selection sticks; the extraction only fills the gap.
	if st.SelectedProjectID == nil {
		st.SelectedProjectID = resolveSelection(st.CandidateProjects, ext.ProjectIndex, ext.ProjectName)
	}

	var lead model.LeadInfo
	lead.Email = ext.Email
	lead.FirstName = ext.FirstName
	st.LeadInfo.Merge(lead)

	if st.SelectedProjectID == nil {
		if len(st.CandidateProjects) > 0 {
			st.AppendAssistant("Which of these projects would you like to visit?\n" +
				shortlistText(st.CandidateProjects, false))
		} else {
			st.AppendAssistant(
				"Which project would you like to visit? If you haven't seen any options yet, " +
					"tell me your city, unit size and budget and I'll suggest some first.")
		}
		st.Stage = model.StageBookingNeedProject
		return nil
	}

	missingName := st.LeadInfo.FirstName == nil
	missingEmail := st.LeadInfo.Email == nil
	switch {
	case missingName && missingEmail:
		st.AppendAssistant("Great! To book your visit, could you share your first name and email address?")
		st.Stage = model.StageBookingNeedContact
		return nil
	case missingName:
		st.AppendAssistant("Almost there! What name should I put the visit under?")
		st.Stage = model.StageBookingNeedContact
		return nil
	case missingEmail:
		st.AppendAssistant("Almost there! What email address should I use for the visit confirmation?")
		st.Stage = model.StageBookingNeedContact
		return nil
	}

	booking, err := a.catalog.CreateLeadAndBooking(ctx, st.LeadInfo, st.BuyerProfile, *st.SelectedProjectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			st.AppendAssistant(
				"I'm sorry, that project is no longer available in my records, " +
					"so I couldn't create the visit request. Would you like to pick another project?")
			st.Stage = model.StageBookingError
			st.SelectedProjectID = nil
			return nil
		}
		return fmt.Errorf("create booking: %w", err)
	}

	st.AppendAssistant(fmt.Sprintf(
		"Perfect, %s! I've created a visit request for **%s** in %s. "+
			"Our team will reach out to you at **%s** to confirm the date and time.",
		booking.Lead.FirstName, booking.Project.Name, booking.Project.City, booking.Lead.Email))
	st.Stage = model.StageBookingConfirmed
	return nil
}
