package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/rebound/internal/adapters/http/api"
	service "github.com/okian/rebound/internal/app"
	"github.com/okian/rebound/internal/domain/recommend"
	"github.com/okian/rebound/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const classCSV = "student_id,name,grade,attendance_rate,previous_failures,study_hours_per_week\n" +
	"1,Arjun,55,0.6,2,2\n" +
	"2,Aanya,82,0.95,0,12\n" +
	"3,Rohan,68,0.65,0,7\n"

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Fields  []struct {
		Field string `json:"field"`
		Rule  string `json:"rule"`
	} `json:"fields"`
	Errors []struct {
		Line   int    `json:"line"`
		Column string `json:"column"`
	} `json:"errors"`
}

func newHandler(opts ...service.Option) http.Handler {
	svc := service.New(append([]service.Option{service.WithSampleSeed(3)}, opts...)...)
	So(svc.Start(context.Background()), ShouldBeNil)
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	return api.RequestIDMiddleware(mux)
}

func do(h http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// countingReader records how much of a request body the server pulled.
type countingReader struct {
	r    io.Reader
	read int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += n
	return n, err
}

func decode(w *httptest.ResponseRecorder, v any) {
	So(json.Unmarshal(w.Body.Bytes(), v), ShouldBeNil)
}

func TestServer_UploadLimit(t *testing.T) {
	Convey("Given a server capping uploads at 1 KiB", t, func() {
		h := newHandler(service.WithMaxUploadBytes(1024))

		Convey("When a form upload carries a 4 MiB file", func() {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			part, err := mw.CreateFormFile("file", "students.csv")
			So(err, ShouldBeNil)
			_, _ = part.Write([]byte(classCSV))
			_, _ = part.Write(bytes.Repeat([]byte("4,Diya,70,0.8,0,6\n"), (4<<20)/18))
			So(mw.Close(), ShouldBeNil)
			total := buf.Len()

			body := &countingReader{r: &buf}
			req := httptest.NewRequest(http.MethodPost, "/students", body)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it should be refused before the body is read", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				var eb errorBody
				decode(w, &eb)
				So(eb.Code, ShouldEqual, "too_large")
				So(body.read, ShouldBeLessThan, 128<<10)
				So(body.read, ShouldBeLessThan, total)
			})

			Convey("And the sample roster should be kept", func() {
				list := do(h, http.MethodGet, "/students", "")
				So(list.Body.String(), ShouldContainSubstring, `"source":"sample"`)
			})
		})

		Convey("When a raw body exceeds the cap", func() {
			w := do(h, http.MethodPost, "/students", classCSV+strings.Repeat("4,Diya,70,0.8,0,6\n", 100))

			Convey("Then it should be too large", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
			})
		})
	})
}

func TestServer_Operational(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		h := newHandler()

		Convey("When scraping /healthz", func() {
			w := do(h, http.MethodGet, "/healthz", "")

			Convey("Then Prometheus metrics should be served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "rebound_roster_size")
			})
		})

		Convey("When reading /stats", func() {
			w := do(h, http.MethodGet, "/stats", "")

			Convey("Then the roster size should be reported", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var stats map[string]any
				decode(w, &stats)
				So(stats["rosterRows"], ShouldEqual, 20.0)
				So(stats["started"], ShouldEqual, true)
			})
		})

		Convey("When a client sends a request id", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			req.Header.Set(api.RequestIDHeader, "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it should be echoed back", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
			})
		})

		Convey("When a client sends no request id", func() {
			w := do(h, http.MethodGet, "/stats", "")

			Convey("Then one should be generated", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldHaveLength, 36)
			})
		})
	})
}

func TestServer_Students(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		h := newHandler()

		Convey("When listing the boot roster", func() {
			w := do(h, http.MethodGet, "/students", "")

			Convey("Then all sample students should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Roster struct {
						Source string `json:"source"`
						Rows   int    `json:"rows"`
					} `json:"roster"`
					Students []map[string]any `json:"students"`
				}
				decode(w, &body)
				So(body.Roster.Source, ShouldEqual, service.SourceSample)
				So(body.Roster.Rows, ShouldEqual, 20)
				So(body.Students, ShouldHaveLength, 20)
				So(body.Students[0], ShouldContainKey, "dropout_risk")
				So(body.Students[0], ShouldContainKey, "risk_level")
			})
		})

		Convey("When exporting as CSV", func() {
			w := do(h, http.MethodGet, "/students?format=csv", "")

			Convey("Then a table with derived columns should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "text/csv")
				So(w.Body.String(), ShouldStartWith, "student_id,name,")
				So(strings.Split(w.Body.String(), "\n")[0], ShouldEndWith, "dropout_risk,risk_level")
			})
		})

		Convey("When asking for an unknown format", func() {
			w := do(h, http.MethodGet, "/students?format=xml", "")

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var body errorBody
				decode(w, &body)
				So(body.Code, ShouldEqual, "bad_request")
			})
		})

		Convey("When uploading a table in the body", func() {
			w := do(h, http.MethodPost, "/students", classCSV)

			Convey("Then it should replace the roster", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"rows":3`)
				list := do(h, http.MethodGet, "/students", "")
				So(list.Body.String(), ShouldContainSubstring, `"name":"Rohan"`)
			})
		})

		Convey("When uploading a table as a form file", func() {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			part, err := mw.CreateFormFile("file", "students.csv")
			So(err, ShouldBeNil)
			_, _ = part.Write([]byte(classCSV))
			So(mw.Close(), ShouldBeNil)

			req := httptest.NewRequest(http.MethodPost, "/students", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it should be accepted", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"source":"upload"`)
			})
		})

		Convey("When a form upload lacks the file field", func() {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			So(mw.WriteField("other", "x"), ShouldBeNil)
			So(mw.Close(), ShouldBeNil)

			req := httptest.NewRequest(http.MethodPost, "/students", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When uploading a malformed table", func() {
			w := do(h, http.MethodPost, "/students",
				"student_id,name,grade,attendance_rate,previous_failures,study_hours_per_week\n1,Arjun,eighty,0.6,2,2\n")

			Convey("Then the cell errors should be listed and the roster kept", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var body errorBody
				decode(w, &body)
				So(body.Code, ShouldEqual, "invalid_table")
				So(body.Errors, ShouldHaveLength, 1)
				So(body.Errors[0].Line, ShouldEqual, 2)
				So(body.Errors[0].Column, ShouldEqual, "grade")

				list := do(h, http.MethodGet, "/students", "")
				So(list.Body.String(), ShouldContainSubstring, `"source":"sample"`)
			})
		})

		Convey("When regenerating the sample roster", func() {
			w := do(h, http.MethodPost, "/students/sample?size=5", "")

			Convey("Then it should hold the requested rows", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"rows":5`)
			})
		})

		Convey("When the sample size is not a number", func() {
			w := do(h, http.MethodPost, "/students/sample?size=many", "")

			Convey("Then the size field should be named", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var body errorBody
				decode(w, &body)
				So(body.Code, ShouldEqual, "invalid_input")
				So(body.Fields[0].Field, ShouldEqual, "size")
			})
		})
	})
}

func TestServer_Predict(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		h := newHandler()

		Convey("When predicting a complete assessment", func() {
			w := do(h, http.MethodPost, "/predict",
				`{"grade":50,"attendance_rate":0.5,"previous_failures":1,"study_hours_per_week":3}`)

			Convey("Then the risk and verdict should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body struct {
					DropoutRisk float64  `json:"dropout_risk"`
					RiskLevel   string   `json:"risk_level"`
					Verdict     string   `json:"verdict"`
					Indicators  []string `json:"indicators"`
				}
				decode(w, &body)
				So(body.DropoutRisk, ShouldEqual, 1.0)
				So(body.RiskLevel, ShouldEqual, "High")
				So(body.Verdict, ShouldEqual, "Risk Level: High (Score 1.00)")
				So(body.Indicators, ShouldHaveLength, 4)
			})
		})

		Convey("When predicting a safe assessment", func() {
			w := do(h, http.MethodPost, "/predict",
				`{"grade":90,"attendance_rate":0.95,"previous_failures":0,"study_hours_per_week":10}`)

			Convey("Then no indicator should fire", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"indicators":[]`)
				So(w.Body.String(), ShouldContainSubstring, `"risk_level":"Low"`)
			})
		})

		Convey("When fields are missing", func() {
			w := do(h, http.MethodPost, "/predict", `{"grade":50}`)

			Convey("Then each missing field should be named", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var body errorBody
				decode(w, &body)
				So(body.Code, ShouldEqual, "invalid_input")
				So(body.Fields, ShouldHaveLength, 3)
				So(body.Fields[0].Field, ShouldEqual, "attendance_rate")
				So(body.Fields[0].Rule, ShouldEqual, "required")
			})
		})

		Convey("When a value is out of range", func() {
			w := do(h, http.MethodPost, "/predict",
				`{"grade":50,"attendance_rate":1.5,"previous_failures":1,"study_hours_per_week":3}`)

			Convey("Then the field should be named", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var body errorBody
				decode(w, &body)
				So(body.Fields, ShouldHaveLength, 1)
				So(body.Fields[0].Field, ShouldEqual, "attendance_rate")
			})
		})

		Convey("When a value has the wrong type", func() {
			w := do(h, http.MethodPost, "/predict",
				`{"grade":"abc","attendance_rate":0.6,"previous_failures":1,"study_hours_per_week":3}`)

			Convey("Then the field should be named", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var body errorBody
				decode(w, &body)
				So(body.Code, ShouldEqual, "invalid_input")
				So(body.Fields, ShouldHaveLength, 1)
				So(body.Fields[0].Field, ShouldEqual, "grade")
				So(body.Fields[0].Rule, ShouldEqual, "type")
			})
		})

		Convey("When previous_failures is written as 1.0", func() {
			w := do(h, http.MethodPost, "/predict",
				`{"grade":50,"attendance_rate":0.6,"previous_failures":1.0,"study_hours_per_week":3}`)

			Convey("Then it should count as one failure", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"dropout_risk":1`)
			})
		})

		Convey("When previous_failures is fractional", func() {
			w := do(h, http.MethodPost, "/predict",
				`{"grade":50,"attendance_rate":0.6,"previous_failures":1.5,"study_hours_per_week":3}`)

			Convey("Then it should be rejected as not whole", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var body errorBody
				decode(w, &body)
				So(body.Code, ShouldEqual, "invalid_input")
				So(body.Fields[0].Field, ShouldEqual, "previous_failures")
				So(body.Fields[0].Rule, ShouldEqual, "integer")
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(h, http.MethodPost, "/predict", `grade=50`)

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, `"code":"bad_request"`)
			})
		})

		Convey("When the wrong method is used", func() {
			w := do(h, http.MethodGet, "/predict", "")

			Convey("Then the mux should refuse it", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})

		Convey("When a prediction is made", func() {
			do(h, http.MethodPost, "/predict",
				`{"grade":50,"attendance_rate":0.5,"previous_failures":1,"study_hours_per_week":3}`)

			Convey("Then the roster should be unchanged", func() {
				list := do(h, http.MethodGet, "/students", "")
				So(list.Body.String(), ShouldContainSubstring, `"rows":20`)
			})
		})
	})
}

func TestServer_PlanAndProgress(t *testing.T) {
	Convey("Given a server with an uploaded class", t, func() {
		h := newHandler()
		So(do(h, http.MethodPost, "/students", classCSV).Code, ShouldEqual, http.StatusOK)

		Convey("When requesting a plan", func() {
			w := do(h, http.MethodGet, "/plan/1", "")

			Convey("Then the recommendations should be listed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var plan recommend.Plan
				decode(w, &plan)
				So(plan.StudentID, ShouldEqual, int64(1))
				So(plan.Recommendations, ShouldHaveLength, 5)
				So(plan.Badge, ShouldEqual, recommend.BadgeBeginner)
			})
		})

		Convey("When requesting the text report", func() {
			w := do(h, http.MethodGet, "/plan/2?format=text", "")

			Convey("Then Markdown should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "text/markdown")
				So(w.Body.String(), ShouldStartWith, "**Skill Rebuilder Plan for Aanya (ID 2)**")
			})
		})

		Convey("When requesting an unknown id", func() {
			w := do(h, http.MethodGet, "/plan/999", "")

			Convey("Then it should be not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(w.Body.String(), ShouldContainSubstring, `"code":"not_found"`)
			})
		})

		Convey("When the id is not a number", func() {
			w := do(h, http.MethodGet, "/plan/abc", "")

			Convey("Then the id field should be named", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var body errorBody
				decode(w, &body)
				So(body.Fields[0].Field, ShouldEqual, "student_id")
			})
		})

		Convey("When three modules are completed", func() {
			var w *httptest.ResponseRecorder
			for i := 0; i < 3; i++ {
				w = do(h, http.MethodPost, "/progress/2", "")
				So(w.Code, ShouldEqual, http.StatusOK)
			}

			Convey("Then the badge should be Intermediate", func() {
				var p service.Progress
				decode(w, &p)
				So(p.Completed, ShouldEqual, 3)
				So(p.Badge, ShouldEqual, recommend.BadgeIntermediate)
				So(p.Message, ShouldEqual, "Progress updated for Student 2! Total Completed: 3")
			})

			Convey("And the plan should reflect it", func() {
				plan := do(h, http.MethodGet, "/plan/2", "")
				So(plan.Body.String(), ShouldContainSubstring, `"completed":3`)
				So(plan.Body.String(), ShouldContainSubstring, `"badge":"Intermediate"`)
			})
		})

		Convey("When progress is recorded for an id not on the roster", func() {
			w := do(h, http.MethodPost, "/progress/77", "")

			Convey("Then it should still be accepted", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"completed":1`)
			})
		})
	})
}

type failingPlans struct{}

func (failingPlans) Plan(context.Context, int64) (recommend.Plan, error) {
	return recommend.Plan{}, errors.New("boom")
}

func TestPlanHandler_InternalError(t *testing.T) {
	Convey("Given a plan handler whose dependency fails", t, func() {
		handler := api.NewPlanHandler(failingPlans{})
		req := httptest.NewRequest(http.MethodGet, "/plan/1", nil)
		req.SetPathValue("id", "1")
		w := httptest.NewRecorder()

		Convey("When requesting a plan", func() {
			handler.HandleGetPlan(w, req)

			Convey("Then it should be an internal error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				var body errorBody
				decode(w, &body)
				So(body.Code, ShouldEqual, "internal_error")
				So(body.Message, ShouldEqual, "api.get_plan: boom")
			})
		})
	})
}
