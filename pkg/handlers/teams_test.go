package handlers_test

import (
	"net/http"
	"strings"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/database"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/utils"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Teams", func() {
	var api *API

	BeforeEach(func() {
		api = newAPI(database.NewMemoryDatabase())
	})

	Describe("authentication", func() {
		Specify("sad path - no token", func() {
			res := api.Call(http.MethodPost, "/teams", nil, map[string]string{"name": "Falcons"})
			Expect(res).To(HaveError(http.StatusUnauthorized, "UNAUTHORIZED"))
		})
		Specify("sad path - forged token", func() {
			api.tokens = utils.NewJWTService("other-secret")
			res := api.Call(http.MethodGet, "/invitations", &captain, nil)
			Expect(res).To(HaveError(http.StatusUnauthorized, "UNAUTHORIZED"))
		})
	})

	Describe("Create Team", func() {
		Specify("happy path", func() {
			teamID := api.CreateTeam(captain, "Falcons")

			res := api.Call(http.MethodGet, "/teams/"+teamID+"/members", &captain, nil)
			Expect(res.Status).To(Equal(http.StatusOK))
			members := res.Field("members").([]interface{})
			Expect(members).To(HaveLen(1))
			Expect(members[0]).To(HaveKeyWithValue("role", "CAPTAIN"))
			Expect(members[0]).To(HaveKeyWithValue("user_id", captain.UserID))
		})
		Specify("sad path - empty name", func() {
			res := api.Call(http.MethodPost, "/teams", &captain, map[string]string{"name": " "})
			Expect(res).To(HaveError(http.StatusBadRequest, "BAD_REQUEST"))
		})
		Specify("sad path - malformed body", func() {
			res := api.Call(http.MethodPost, "/teams", &captain, "not an object")
			Expect(res).To(HaveError(http.StatusBadRequest, "BAD_REQUEST"))
		})
		Specify("sad path - unknown team members", func() {
			res := api.Call(http.MethodGet, "/teams/missing/members", &captain, nil)
			Expect(res).To(HaveError(http.StatusNotFound, "NOT_FOUND"))
		})
	})

	Describe("Invitations", func() {
		var teamID string

		BeforeEach(func() {
			teamID = api.CreateTeam(captain, "Falcons")
		})

		Specify("happy path - invite and accept", func() {
			invID := api.Invite(captain, teamID, member.UserID)

			res := api.Call(http.MethodGet, "/invitations", &member, nil)
			Expect(res.Status).To(Equal(http.StatusOK))
			Expect(res.Items()).To(HaveLen(1))
			Expect(res.Items()[0]).To(HaveKeyWithValue("id", invID))

			res = api.Call(http.MethodPut, "/invitations/"+invID, &member, map[string]string{"status": "ACCEPTED"})
			Expect(res.Status).To(Equal(http.StatusOK))
			Expect(res.Field("status")).To(Equal("ACCEPTED"))

			res = api.Call(http.MethodGet, "/teams/"+teamID+"/members", &member, nil)
			Expect(res.Field("members")).To(HaveLen(2))

			res = api.Call(http.MethodGet, "/invitations", &member, nil)
			Expect(string(res.Raw)).To(Equal("[]\n"))
		})
		Specify("happy path - reject", func() {
			invID := api.Invite(captain, teamID, member.UserID)
			res := api.Call(http.MethodPut, "/invitations/"+invID, &member, map[string]string{"status": "rejected"})
			Expect(res.Status).To(Equal(http.StatusOK))
			Expect(res.Field("status")).To(Equal("REJECTED"))

			res = api.Call(http.MethodGet, "/teams/"+teamID+"/members", &captain, nil)
			Expect(res.Field("members")).To(HaveLen(1))
		})
		Specify("sad path - invite by a non-captain", func() {
			res := api.Call(http.MethodPost, "/teams/"+teamID+"/invite", &outsider, map[string]string{"userId": member.UserID})
			Expect(res).To(HaveError(http.StatusForbidden, "FORBIDDEN"))
			res = api.Call(http.MethodPost, "/teams/"+teamID+"/invite", &admin, map[string]string{"userId": member.UserID})
			Expect(res).To(HaveError(http.StatusForbidden, "FORBIDDEN"))
		})
		Specify("sad path - duplicate pending invitation", func() {
			api.Invite(captain, teamID, member.UserID)
			res := api.Call(http.MethodPost, "/teams/"+teamID+"/invite", &captain, map[string]string{"userId": member.UserID})
			Expect(res).To(HaveError(http.StatusConflict, "CONFLICT"))
		})
		Specify("sad path - missing userId", func() {
			res := api.Call(http.MethodPost, "/teams/"+teamID+"/invite", &captain, map[string]string{})
			Expect(res).To(HaveError(http.StatusBadRequest, "BAD_REQUEST"))
		})
		Specify("sad path - invalid decision", func() {
			invID := api.Invite(captain, teamID, member.UserID)
			res := api.Call(http.MethodPut, "/invitations/"+invID, &member, map[string]string{"status": "PENDING"})
			Expect(res).To(HaveError(http.StatusBadRequest, "BAD_REQUEST"))
		})
		Specify("sad path - responding to someone else's invitation", func() {
			invID := api.Invite(captain, teamID, member.UserID)
			res := api.Call(http.MethodPut, "/invitations/"+invID, &outsider, map[string]string{"status": "ACCEPTED"})
			Expect(res).To(HaveError(http.StatusNotFound, "NOT_FOUND"))
		})
		Specify("sad path - responding twice", func() {
			invID := api.Invite(captain, teamID, member.UserID)
			res := api.Call(http.MethodPut, "/invitations/"+invID, &member, map[string]string{"status": "ACCEPTED"})
			Expect(res.Status).To(Equal(http.StatusOK))
			res = api.Call(http.MethodPut, "/invitations/"+invID, &member, map[string]string{"status": "REJECTED"})
			Expect(res).To(HaveError(http.StatusNotFound, "NOT_FOUND"))
		})
		Specify("cancel", func() {
			invID := api.Invite(captain, teamID, member.UserID)

			res := api.Call(http.MethodDelete, "/teams/"+teamID+"/invite/"+invID, &outsider, nil)
			Expect(res).To(HaveError(http.StatusForbidden, "FORBIDDEN"))

			res = api.Call(http.MethodDelete, "/teams/"+teamID+"/invite/"+invID, &captain, nil)
			Expect(res.Status).To(Equal(http.StatusOK))
			Expect(res.Field("success")).To(BeTrue())

			res = api.Call(http.MethodDelete, "/teams/"+teamID+"/invite/"+invID, &captain, nil)
			Expect(res).To(HaveError(http.StatusNotFound, "NOT_FOUND"))
		})
		Specify("sad path - empty body", func() {
			res := api.Call(http.MethodPost, "/teams/"+teamID+"/invite", &captain, nil)
			Expect(res).To(HaveError(http.StatusBadRequest, "BAD_REQUEST"))
		})
	})

	Describe("Membership", func() {
		var teamID string

		BeforeEach(func() {
			teamID = api.CreateTeam(captain, "Falcons")
			invID := api.Invite(captain, teamID, member.UserID)
			res := api.Call(http.MethodPut, "/invitations/"+invID, &member, map[string]string{"status": "ACCEPTED"})
			Expect(res.Status).To(Equal(http.StatusOK))
		})

		Specify("member leaves", func() {
			res := api.Call(http.MethodPost, "/teams/"+teamID+"/leave", &member, nil)
			Expect(res.Status).To(Equal(http.StatusOK))
			Expect(res.Field("success")).To(BeTrue())

			res = api.Call(http.MethodPost, "/teams/"+teamID+"/leave", &member, nil)
			Expect(res).To(HaveError(http.StatusNotFound, "NOT_FOUND"))
		})
		Specify("sad path - captain leaves", func() {
			res := api.Call(http.MethodPost, "/teams/"+teamID+"/leave", &captain, nil)
			Expect(res).To(HaveError(http.StatusForbidden, "FORBIDDEN"))
		})
		Specify("captain removes member", func() {
			res := api.Call(http.MethodDelete, "/teams/"+teamID+"/members/"+member.UserID, &captain, nil)
			Expect(res.Status).To(Equal(http.StatusOK))
			Expect(res.Field("success")).To(BeTrue())

			res = api.Call(http.MethodGet, "/notifications", &member, nil)
			Expect(res.Status).To(Equal(http.StatusOK))
			kinds := []string{}
			for _, n := range res.Field("notifications").([]interface{}) {
				kinds = append(kinds, n.(map[string]interface{})["kind"].(string))
			}
			Expect(kinds).To(ContainElement("team.member.removed"))
		})
		Specify("sad path - member removes captain", func() {
			res := api.Call(http.MethodDelete, "/teams/"+teamID+"/members/"+captain.UserID, &member, nil)
			Expect(res).To(HaveError(http.StatusForbidden, "FORBIDDEN"))
		})
		Specify("sad path - captain removes themself", func() {
			res := api.Call(http.MethodDelete, "/teams/"+teamID+"/members/"+captain.UserID, &captain, nil)
			Expect(res).To(HaveError(http.StatusForbidden, "FORBIDDEN"))
		})
		Specify("sad path - removing a non-member", func() {
			res := api.Call(http.MethodDelete, "/teams/"+teamID+"/members/"+outsider.UserID, &captain, nil)
			Expect(res).To(HaveError(http.StatusNotFound, "NOT_FOUND"))
		})
	})

	Describe("routing", func() {
		Specify("unknown route", func() {
			res := api.Call(http.MethodGet, "/nope", &captain, nil)
			Expect(res).To(HaveError(http.StatusNotFound, "NOT_FOUND"))
			Expect(strings.Contains(res.Field("error").(string), "/nope")).To(BeTrue())
		})
		Specify("trailing slash", func() {
			res := api.Call(http.MethodGet, "/invitations/", &captain, nil)
			Expect(res.Status).To(Equal(http.StatusOK))
		})
	})
})
