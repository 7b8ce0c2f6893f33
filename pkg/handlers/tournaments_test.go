package handlers_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/database"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/models"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Join requests", func() {
	var (
		api          *API
		tournamentID string
		db           *database.SQLiteDatabase
		dir          string
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "handlers-")
		Expect(err).To(BeNil())
		db, err = database.NewSQLiteDatabase(context.Background(), filepath.Join(dir, "handlers.db"))
		Expect(err).To(BeNil())
		api = newAPI(db)
		tournamentID = api.CreateTournament(organizer, "Spring Cup")
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	join := func() string {
		res := api.Call(http.MethodPost, "/tournaments/"+tournamentID+"/join", &player, nil)
		Expect(res.Status).To(Equal(http.StatusCreated))
		Expect(res.Field("status")).To(Equal("pending"))
		return res.Field("id").(string)
	}
	handle := func(as models.Identity, requestID, action string) Response {
		return api.Call(http.MethodPost, "/tournaments/"+tournamentID+"/join/handle", &as,
			map[string]string{"requestId": requestID, "action": action})
	}
	userStatus := func(query string, authenticated bool) Response {
		path := "/tournaments/" + tournamentID + "/join/user-status" + query
		if authenticated {
			return api.Call(http.MethodGet, path, &player, nil)
		}
		return api.Call(http.MethodGet, path, nil, nil)
	}

	Specify("happy path - request and accept", func() {
		res := userStatus("?userId="+player.UserID, false)
		Expect(res.Status).To(Equal(http.StatusOK))
		Expect(res.Body).To(HaveKeyWithValue("status", BeNil()))

		requestID := join()

		Expect(userStatus("?userId="+player.UserID, false).Field("status")).To(Equal("pending"))
		Expect(userStatus("", true).Field("status")).To(Equal("pending"))
		Expect(userStatus("", false).Body).To(HaveKeyWithValue("status", BeNil()))

		res = handle(organizer, requestID, "accept")
		Expect(res.Status).To(Equal(http.StatusOK))
		Expect(res.Field("ok")).To(BeTrue())
		Expect(res.Field("updated")).To(HaveKeyWithValue("status", "accepted"))

		Expect(userStatus("", true).Field("status")).To(Equal("accepted"))

		res = api.Call(http.MethodGet, "/notifications", &player, nil)
		Expect(res.Field("notifications")).To(HaveLen(1))
	})

	// The first decision is final: a second handle is refused and leaves
	// the request as it was.
	Specify("sad path - handling twice", func() {
		requestID := join()
		Expect(handle(organizer, requestID, "accept").Status).To(Equal(http.StatusOK))

		res := handle(organizer, requestID, "reject")
		Expect(res).To(HaveError(http.StatusConflict, "CONFLICT"))
		Expect(userStatus("", true).Field("status")).To(Equal("accepted"))
	})

	Specify("sad path - not the organizer", func() {
		requestID := join()
		Expect(handle(player, requestID, "accept")).To(HaveError(http.StatusForbidden, "FORBIDDEN"))

		Expect(handle(admin, requestID, "accept")).To(HaveError(http.StatusForbidden, "FORBIDDEN"))

		res := api.Call(http.MethodGet, "/tournaments/"+tournamentID+"/join/requests", &player, nil)
		Expect(res).To(HaveError(http.StatusForbidden, "FORBIDDEN"))
	})

	Specify("sad path - malformed decisions", func() {
		requestID := join()
		Expect(handle(organizer, "", "accept")).To(HaveError(http.StatusBadRequest, "BAD_REQUEST"))
		Expect(handle(organizer, requestID, "maybe")).To(HaveError(http.StatusBadRequest, "BAD_REQUEST"))
		Expect(handle(organizer, "missing", "reject")).To(HaveError(http.StatusNotFound, "NOT_FOUND"))
	})

	Specify("sad path - duplicate request", func() {
		join()
		res := api.Call(http.MethodPost, "/tournaments/"+tournamentID+"/join", &player, nil)
		Expect(res).To(HaveError(http.StatusConflict, "CONFLICT"))
	})

	Specify("resubmission after rejection", func() {
		requestID := join()
		Expect(handle(organizer, requestID, "reject").Status).To(Equal(http.StatusOK))
		Expect(userStatus("", true).Field("status")).To(Equal("rejected"))

		join()

		res := api.Call(http.MethodGet, "/tournaments/"+tournamentID+"/join/requests", &organizer, nil)
		Expect(res.Status).To(Equal(http.StatusOK))
		Expect(res.Field("requests")).To(HaveLen(2))
	})

	Specify("sad path - unknown tournament", func() {
		res := api.Call(http.MethodPost, "/tournaments/missing/join", &player, nil)
		Expect(res).To(HaveError(http.StatusNotFound, "NOT_FOUND"))

		res = api.Call(http.MethodGet, "/tournaments/missing/join/user-status?userId=player", nil, nil)
		Expect(res.Status).To(Equal(http.StatusOK))
		Expect(res.Body).To(HaveKeyWithValue("status", BeNil()))
	})
})

var _ = Describe("Notifications", func() {
	var api *API

	BeforeEach(func() {
		api = newAPI(database.NewMemoryDatabase())
		teamID := api.CreateTeam(captain, "Falcons")
		api.Invite(captain, teamID, member.UserID)
	})

	Specify("mark read", func() {
		res := api.Call(http.MethodGet, "/notifications?limit=10", &member, nil)
		Expect(res.Status).To(Equal(http.StatusOK))
		list := res.Field("notifications").([]interface{})
		Expect(list).To(HaveLen(1))
		id := list[0].(map[string]interface{})["id"].(string)

		res = api.Call(http.MethodPut, "/notifications/"+id+"/read", &outsider, nil)
		Expect(res).To(HaveError(http.StatusNotFound, "NOT_FOUND"))

		res = api.Call(http.MethodPut, "/notifications/"+id+"/read", &member, nil)
		Expect(res.Status).To(Equal(http.StatusOK))
		Expect(res.Field("is_read")).To(BeTrue())
	})

	Specify("sad path - bad limit", func() {
		res := api.Call(http.MethodGet, "/notifications?limit=abc", &member, nil)
		Expect(res).To(HaveError(http.StatusBadRequest, "BAD_REQUEST"))
	})

	Specify("empty inbox", func() {
		res := api.Call(http.MethodGet, "/notifications", &outsider, nil)
		Expect(res.Status).To(Equal(http.StatusOK))
		Expect(res.Field("notifications")).To(BeEmpty())
	})
})

var _ = Describe("Health", func() {
	Specify("healthy", func() {
		res := newAPI(database.NewMemoryDatabase()).Call(http.MethodGet, "/", nil, nil)
		Expect(res.Status).To(Equal(http.StatusOK))
		Expect(res.Field("status")).To(Equal("ok"))
	})
	Specify("unhealthy store", func() {
		res := newAPI(unhealthyDB{database.NewMemoryDatabase()}).Call(http.MethodGet, "/", nil, nil)
		Expect(res.Status).To(Equal(http.StatusServiceUnavailable))
		Expect(res.Field("status")).To(Equal("unavailable"))
	})
	Specify("method not allowed", func() {
		res := newAPI(database.NewMemoryDatabase()).Call(http.MethodDelete, "/", nil, nil)
		Expect(res).To(HaveError(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"))
	})
})
