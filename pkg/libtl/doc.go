//
// libtl is client that interacts with the TravelLog story API.
//

// Create client
//
//	client, err := libtl.NewDefaultClient("https://story-api.dicoding.dev/v1")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Authenticate
//
//	err = client.Login(ctx, "george.abitbol@nowhere.lan", "12345678")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// The bearer token can be persisted and restored later.
//	token := client.BearerToken()
//	client.SetBearerToken(token)
//
// Get all stories
//
//	stories, err := client.Stories(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Publish a story
//
//	err = client.AddStory(ctx, libtl.NewStory{
//		Description: "Sunrise from Bromo",
//		Photo: libtl.Photo{
//			Filename:    "bromo.jpg",
//			ContentType: "image/jpeg",
//			Data:        data,
//		},
//	})
//
// A 401 response (or a token-related error message) clears the bearer token
// and calls the handler registered with SetUnauthorizedHandler.
package libtl
