package mockserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/stretchr/testify/suite"
)

type MockServerTestSuite struct {
	suite.Suite
	server *MockServer
}

func TestMockServerSuite(t *testing.T) {
	suite.Run(t, new(MockServerTestSuite))
}

func (suite *MockServerTestSuite) SetupTest() {
	suite.server = NewMockServer(1)
	suite.Require().NoError(suite.server.Start(""))
}

func (suite *MockServerTestSuite) TearDownTest() {
	suite.NoError(suite.server.Stop())
}

func (suite *MockServerTestSuite) klines(query string) (int, [][]any) {
	resp, err := http.Get(suite.server.BaseURL() + "/api/v3/klines" + query)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	var rows [][]any
	if resp.StatusCode == http.StatusOK {
		suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&rows))
	}

	return resp.StatusCode, rows
}

func (suite *MockServerTestSuite) TestKlinesRespectLimit() {
	suite.server.SetCloses("BTCUSDT", types.PriceSeries{1, 2, 3, 4, 5})

	status, rows := suite.klines("?symbol=BTCUSDT&interval=1h&limit=3")
	suite.Require().Equal(http.StatusOK, status)
	suite.Require().Len(rows, 3)
	suite.Equal("3.00000000", rows[0][4])
	suite.Equal("5.00000000", rows[2][4])
	suite.Equal(1, suite.server.KlineRequests())
}

func (suite *MockServerTestSuite) TestKlinesGenerateUnknownSymbols() {
	status, rows := suite.klines("?symbol=ETHUSDT&interval=1h&limit=120")
	suite.Require().Equal(http.StatusOK, status)
	suite.Len(rows, 120)
}

func (suite *MockServerTestSuite) TestKlinesValidateQuery() {
	status, _ := suite.klines("?interval=1h")
	suite.Equal(http.StatusBadRequest, status)

	status, _ = suite.klines("?symbol=BTCUSDT&interval=1h&limit=0")
	suite.Equal(http.StatusBadRequest, status)
}

func (suite *MockServerTestSuite) TestSendMessage() {
	body := []byte(`{"chat_id":"7","text":"hello"}`)

	resp, err := http.Post(suite.server.BaseURL()+"/botabc/sendMessage", "application/json", bytes.NewReader(body))
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusOK, resp.StatusCode)

	suite.server.SetTelegramFailure(true)

	resp, err = http.Post(suite.server.BaseURL()+"/botabc/sendMessage", "application/json", bytes.NewReader(body))
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusInternalServerError, resp.StatusCode)

	messages := suite.server.Messages()
	suite.Require().Len(messages, 1)
	suite.Equal(SentMessage{Token: "abc", ChatID: "7", Text: "hello"}, messages[0])
}
