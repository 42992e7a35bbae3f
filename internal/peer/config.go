package peer

import "github.com/pion/webrtc/v3"

var defaultSTUNServers = []string{
	"stun:stun1.l.google.com:19302",
	"stun:stun2.l.google.com:19302",
	"stun:stun.cloudflare.com:3478",
}

// channelLabel names the single data channel both sides use.
const channelLabel = "fileTransfer"

// Config selects the STUN servers used for candidate discovery.
type Config struct {
	STUNServers []string
}

func (c Config) webrtc() webrtc.Configuration {
	servers := c.STUNServers
	if len(servers) == 0 {
		servers = defaultSTUNServers
	}
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: servers},
		},
		ICECandidatePoolSize: 10,
	}
}

func dataChannelInit() *webrtc.DataChannelInit {
	ordered := true
	return &webrtc.DataChannelInit{
		Ordered: &ordered,
	}
}
