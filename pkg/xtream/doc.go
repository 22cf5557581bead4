// Package xtream is a client for the Xtream Codes player API.
//
// Xtream Codes panels expose live channels, movies, series and EPG data
// behind a single endpoint:
//
//	{baseURL}/player_api.php?username={user}&password={pass}&action={action}
//
// Streams are served from credential-bearing paths:
//
//	{baseURL}/live/{user}/{pass}/{streamID}.m3u8
//	{baseURL}/movie/{user}/{pass}/{vodID}.{ext}
//	{baseURL}/series/{user}/{pass}/{episodeID}.{ext}
//
// A Client is bound to one account:
//
//	client := xtream.NewClient("http://panel:8080", "user", "pass",
//		xtream.WithRateLimit(5, 2))
//
//	if _, err := client.Authenticate(ctx); errors.Is(err, xtream.ErrInvalidCredentials) {
//		// wrong username or password
//	}
//
//	channels, err := client.GetLiveStreams(ctx, "")
//	epg, err := client.GetShortEPG(ctx, 101, 4)
//	title := epg[0].Decoded().Title
package xtream
